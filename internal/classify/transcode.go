package classify

import (
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
)

// Analyze derives the playback method and transcode target attributes for a
// session. Method is transcoding iff a non-empty transcoding-info block is
// attached (session-level or inside PlayState); missing sub-fields yield
// absent attributes, never a failure. Reasons are surfaced verbatim when the
// payload provides them and never inferred.
func Analyze(s *emby.Session) models.PlaybackInfo {
	tinfo := transcodingInfo(s)
	if tinfo.IsEmpty() {
		return models.PlaybackInfo{Method: models.PlaybackDirect}
	}

	info := models.PlaybackInfo{
		Method:         models.PlaybackTranscoding,
		TranscodeVideo: tinfo.VideoCodec,
		TranscodeAudio: tinfo.AudioCodec,
	}

	if info.TranscodeVideo == "" && s.PlayState != nil {
		info.TranscodeVideo = s.PlayState.TranscodingVideoCodec
	}
	if info.TranscodeAudio == "" && s.PlayState != nil {
		info.TranscodeAudio = s.PlayState.TranscodingAudioCodec
	}

	if br := targetBitrate(s, tinfo); br > 0 {
		info.TranscodeBitrate = formatKbps(br)
	}

	if len(tinfo.TranscodeReasons) > 0 {
		info.Reasons = tinfo.TranscodeReasons
	} else if tinfo.TranscodingReason != "" {
		info.Reasons = []string{tinfo.TranscodingReason}
	}

	return info
}

func transcodingInfo(s *emby.Session) *emby.TranscodingInfo {
	if !s.TranscodingInfo.IsEmpty() {
		return s.TranscodingInfo
	}
	if s.PlayState != nil && !s.PlayState.TranscodingInfo.IsEmpty() {
		return s.PlayState.TranscodingInfo
	}
	return nil
}

func targetBitrate(s *emby.Session, tinfo *emby.TranscodingInfo) int64 {
	if tinfo.Bitrate > 0 {
		return tinfo.Bitrate
	}
	if s.PlayState != nil && s.PlayState.Bitrate > 0 {
		return s.PlayState.Bitrate
	}
	return 0
}
