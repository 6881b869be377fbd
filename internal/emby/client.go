package emby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/config"
)

const tokenHeader = "X-Emby-Token"

// ErrorKind classifies transport failures against the Emby API
type ErrorKind string

const (
	ErrTimeout      ErrorKind = "timeout"
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrUnreachable  ErrorKind = "unreachable"
	ErrMalformed    ErrorKind = "malformed"
)

// TransportError wraps a failed API call with its classification.
// Unauthorized is fatal to a poll category; the rest are transient.
type TransportError struct {
	Kind ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("emby api %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is an unauthorized transport error
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == ErrUnauthorized
}

// IsTransient reports whether err is a retryable transport error
func IsTransient(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == ErrTimeout || te.Kind == ErrUnreachable
}

// Client handles communication with the Emby server API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	ids        *cache.Cache // memoized user id
}

// NewClient creates a new Emby API client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	scheme := "http"
	if cfg.EmbyUseSSL {
		scheme = "https"
	}

	return &Client{
		baseURL:    fmt.Sprintf("%s://%s:%d", scheme, cfg.EmbyHost, cfg.EmbyPort),
		apiKey:     cfg.EmbyAPIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		ids:        cache.New(10*time.Minute, 30*time.Minute),
	}
}

// doRequest performs an authenticated request and decodes the JSON response.
// Transient failures are retried with a short bounded backoff inside the call;
// the poll cycle's context bounds the whole attempt.
func (c *Client) doRequest(ctx context.Context, method, path string, result interface{}) error {
	op := func() error {
		return c.doOnce(ctx, method, path, result)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

func (c *Client) doOnce(ctx context.Context, method, path string, result interface{}) error {
	fullURL := c.baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("Making Emby API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return &TransportError{Kind: ErrMalformed, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(tokenHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyRequestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &TransportError{Kind: ErrUnauthorized, Err: fmt.Errorf("status 401 for %s", path)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			Kind: ErrUnreachable,
			Err:  fmt.Errorf("status %d for %s: %s", resp.StatusCode, path, string(bodyBytes)),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &TransportError{Kind: ErrMalformed, Err: fmt.Errorf("decoding %s: %w", path, err)}
		}
	}

	return nil
}

func classifyRequestError(err error) *TransportError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{Kind: ErrTimeout, Err: err}
	}
	return &TransportError{Kind: ErrUnreachable, Err: err}
}

// get performs a GET request
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, result)
}

// post performs a POST request, ignoring the response body
func (c *Client) post(ctx context.Context, path string) error {
	return c.doRequest(ctx, http.MethodPost, path, nil)
}

// SystemInfo retrieves server identity and version information
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, "/System/Info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ActivityLog retrieves the most recent server activity entries
func (c *Client) ActivityLog(ctx context.Context, limit int) ([]ActivityEntry, error) {
	var page itemsPage[ActivityEntry]
	path := fmt.Sprintf("/System/ActivityLog/Entries?Limit=%d", limit)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// UserID resolves the API user's id: /Users/Me first, then the admin (or
// first) user from /Users. The result is memoized.
func (c *Client) UserID(ctx context.Context) (string, error) {
	if uid, ok := c.ids.Get("user_id"); ok {
		return uid.(string), nil
	}

	var me User
	if err := c.get(ctx, "/Users/Me", &me); err == nil && me.ID != "" {
		c.ids.SetDefault("user_id", me.ID)
		return me.ID, nil
	} else if IsUnauthorized(err) {
		return "", err
	}

	var users []User
	if err := c.get(ctx, "/Users", &users); err != nil {
		return "", err
	}
	for _, u := range users {
		if u.Policy.IsAdministrator {
			c.ids.SetDefault("user_id", u.ID)
			return u.ID, nil
		}
	}
	if len(users) > 0 {
		c.ids.SetDefault("user_id", users[0].ID)
		return users[0].ID, nil
	}

	return "", &TransportError{Kind: ErrMalformed, Err: errors.New("no users returned")}
}

// userQuery returns "&UserId=..." when the user id can be resolved, "" otherwise
func (c *Client) userQuery(ctx context.Context) string {
	uid, err := c.UserID(ctx)
	if err != nil || uid == "" {
		return ""
	}
	return "&UserId=" + url.QueryEscape(uid)
}

// ItemImageURL returns the primary image URL for a library item or program
func (c *Client) ItemImageURL(itemID string) string {
	if itemID == "" {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/Primary?api_key=%s", c.baseURL, itemID, c.apiKey)
}

// UserImageURL returns the profile image URL for a user
func (c *Client) UserImageURL(userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s/Users/%s/Images/Primary?api_key=%s", c.baseURL, userID, c.apiKey)
}
