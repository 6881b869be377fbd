package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/utils"
)

type fakeController struct {
	polls       atomic.Int64
	unavailable atomic.Int64
	err         error
}

func (f *fakeController) Poll(ctx context.Context) error {
	f.polls.Add(1)
	return f.err
}

func (f *fakeController) MarkUnavailable() {
	f.unavailable.Add(1)
}

type blockingController struct {
	fakeController
	entered chan struct{}
	release chan struct{}
}

func (b *blockingController) Poll(ctx context.Context) error {
	b.polls.Add(1)
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func TestRunPollSuccess(t *testing.T) {
	s := NewScheduler(5*time.Second, utils.NewLogger("error"))
	ctrl := &fakeController{}
	s.Add(models.CategorySessions, 10*time.Second, ctrl)

	s.runPoll(s.jobs[0])

	if ctrl.polls.Load() != 1 {
		t.Errorf("Expected one poll, got %d", ctrl.polls.Load())
	}
	status := s.Status()
	if len(status) != 1 || status[0].Category != models.CategorySessions {
		t.Fatalf("Status mismatch: %+v", status)
	}
	if status[0].Failures != 0 || status[0].LastSuccess == nil {
		t.Errorf("Success should reset failures and stamp last success: %+v", status[0])
	}
}

func TestRunPollFailureThreshold(t *testing.T) {
	s := NewScheduler(5*time.Second, utils.NewLogger("error"))
	ctrl := &fakeController{err: errors.New("connection refused")}
	s.Add(models.CategoryRecordings, 10*time.Second, ctrl)

	s.runPoll(s.jobs[0])
	s.runPoll(s.jobs[0])
	if ctrl.unavailable.Load() != 0 {
		t.Error("Below threshold, entities should stay available")
	}

	s.runPoll(s.jobs[0])
	if ctrl.unavailable.Load() != 1 {
		t.Errorf("Third consecutive failure should mark unavailable, got %d", ctrl.unavailable.Load())
	}

	// Recovery resets the counter
	ctrl.err = nil
	s.runPoll(s.jobs[0])
	if s.Status()[0].Failures != 0 {
		t.Error("Success should reset the failure count")
	}
}

func TestRunPollSkipsWhileInFlight(t *testing.T) {
	s := NewScheduler(5*time.Second, utils.NewLogger("error"))
	ctrl := &blockingController{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	s.Add(models.CategorySessions, 10*time.Second, ctrl)

	done := make(chan struct{})
	go func() {
		s.runPoll(s.jobs[0])
		close(done)
	}()
	<-ctrl.entered

	// A firing that overlaps the in-flight poll must be skipped, no matter
	// which entry point produced either of them.
	s.runPoll(s.jobs[0])
	if got := ctrl.polls.Load(); got != 1 {
		t.Fatalf("Overlapping poll should be skipped, got %d polls", got)
	}

	close(ctrl.release)
	<-done

	// Once the poll completes the gate reopens
	s.runPoll(s.jobs[0])
	if got := ctrl.polls.Load(); got != 2 {
		t.Errorf("Completed poll should release the gate, got %d polls", got)
	}
}

func TestRunPollUnauthorizedStopsCategory(t *testing.T) {
	s := NewScheduler(5*time.Second, utils.NewLogger("error"))
	ctrl := &fakeController{err: &emby.TransportError{Kind: emby.ErrUnauthorized, Err: errors.New("status 401")}}
	s.Add(models.CategorySessions, 10*time.Second, ctrl)

	s.runPoll(s.jobs[0])

	if ctrl.unavailable.Load() != 1 {
		t.Error("Unauthorized should mark entities unavailable immediately")
	}
	if !s.Status()[0].Stopped {
		t.Error("Unauthorized should stop the category")
	}

	// A stopped category never polls again
	s.runPoll(s.jobs[0])
	if ctrl.polls.Load() != 1 {
		t.Errorf("Stopped category must not poll, got %d", ctrl.polls.Load())
	}
}
