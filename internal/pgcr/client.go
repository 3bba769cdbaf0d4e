// Package pgcr fetches Destiny 2 post-game carnage reports and flattens
// them into result rows.
package pgcr

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
	"github.com/vnykmshr/ratepool/pkg/common/validation"
)

const (
	pathPGCR            = "Destiny2/Stats/PostGameCarnageReport/%d/"
	pathActivityHistory = "Destiny2/%d/Account/%s/Character/%s/Stats/Activities/"

	errorCodeSuccess = 1
)

// APIError is an error envelope returned by the platform.
type APIError struct {
	Code            int
	Status          string
	Message         string
	ThrottleSeconds int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform error %s (%d): %s", e.Status, e.Code, e.Message)
}

// Is matches errors.ErrRateLimited when the platform asked us to back off.
func (e *APIError) Is(target error) bool {
	return target == errors.ErrRateLimited && e.ThrottleSeconds > 0
}

// BodyError is a response whose body was not a JSON envelope. The edge
// answers this way when the key is over its request budget.
type BodyError struct {
	StatusCode int
	Err        error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("non-JSON response (status %d): %v", e.StatusCode, e.Err)
}

func (e *BodyError) Unwrap() error { return e.Err }

// Is matches errors.ErrRateLimited for 429 responses.
func (e *BodyError) Is(target error) bool {
	return target == errors.ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the platform root, e.g. https://www.bungie.net/Platform/.
	BaseURL string

	// APIKey is sent as X-API-Key on every request.
	APIKey string

	// Timeout bounds each request. Zero means one second.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// Client talks to the Bungie.net platform API.
type Client struct {
	base *url.URL
	key  string
	http *http.Client
}

// NewClient validates config and builds a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if err := validation.ValidateNotEmpty("pgcr", "api_key", config.APIKey); err != nil {
		return nil, err
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewValidationError("pgcr", "base_url", config.BaseURL, "must be an absolute URL")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	hc := config.HTTPClient
	if hc == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, key: config.APIKey, http: hc}, nil
}

// PostGameCarnageReport fetches the report for one activity instance.
func (c *Client) PostGameCarnageReport(ctx context.Context, instanceID int64) (*Report, error) {
	var report Report
	if err := c.get(ctx, "pgcr", fmt.Sprintf(pathPGCR, instanceID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Character identifies a player character.
type Character struct {
	MembershipType int
	MembershipID   string
	CharacterID    string
}

// ActivityHistory fetches up to count of a character's most recent activities.
func (c *Client) ActivityHistory(ctx context.Context, ch Character, count int) ([]Activity, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	var resp struct {
		Activities []Activity `json:"activities"`
	}
	path := fmt.Sprintf(pathActivityHistory, ch.MembershipType, ch.MembershipID, ch.CharacterID)
	if err := c.get(ctx, "activity_history", path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

type envelope struct {
	Response        json.RawMessage `json:"Response"`
	ErrorCode       int             `json:"ErrorCode"`
	ErrorStatus     string          `json:"ErrorStatus"`
	Message         string          `json:"Message"`
	ThrottleSeconds int             `json:"ThrottleSeconds"`
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	ref := &url.URL{Path: path, RawQuery: query.Encode()}
	u := c.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.NewOperationError("pgcr", op, err)
	}
	req.Header.Set("X-API-Key", c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewOperationError("pgcr", op, transportError(err)).WithContext(path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewOperationError("pgcr", op, transportError(err)).WithContext(path)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &BodyError{StatusCode: resp.StatusCode, Err: err}
	}
	if env.ErrorCode != errorCodeSuccess {
		return &APIError{
			Code:            env.ErrorCode,
			Status:          env.ErrorStatus,
			Message:         env.Message,
			ThrottleSeconds: env.ThrottleSeconds,
		}
	}
	if len(env.Response) == 0 {
		return &APIError{Code: env.ErrorCode, Status: env.ErrorStatus, Message: "empty response"}
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return errors.NewOperationError("pgcr", op, err).WithContext("decode response")
	}
	return nil
}

func transportError(err error) error {
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return stderrors.Join(errors.ErrTimeout, err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return stderrors.Join(errors.ErrTimeout, err)
	}
	return err
}
