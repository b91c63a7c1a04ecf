package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/fieldtrack/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	beaconTimeout  = 5 * time.Second
	maxBodySize    = 4 << 20
)

// Backend actions.
const (
	ActionLogin                = "login"
	ActionSignup               = "signup"
	ActionGetShops             = "getShops"
	ActionLogAttendance        = "logAttendance"
	ActionLogoutMarketer       = "logoutMarketer"
	ActionLogoutHR             = "logoutHR"
	ActionGetDashboardOverview = "getDashboardOverview"
	ActionRegisterShop         = "registerShop"
	ActionRegisterMarketer     = "registerMarketer"
	ActionGetAllMarketers      = "getAllMarketers"
	ActionGetActiveMarketers   = "getActiveMarketers"
	ActionGetAttendanceLogs    = "getAttendanceLogs"
)

// Client talks to the attendance backend. Every write is a POST of a JSON
// body carrying an "action" field; every read is a GET with ?action=.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	beacons sync.WaitGroup
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// post sends action+body and decodes the response into out (may be nil).
func (c *Client) post(ctx context.Context, action string, body, out any) error {
	payload, err := actionBody(action, body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, action, out)
}

func (c *Client) get(ctx context.Context, action string, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("%s: parse base url: %w", action, err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", action, err)
	}
	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out any) error {
	start := time.Now()
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	data, err := c.roundTrip(req, action)
	if err != nil {
		metrics.ObserveAPI(action, "error", start)
		c.logger.Debug("backend request failed", "action", action, "request_id", reqID, "error", err)
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.ObserveAPI(action, "error", start)
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	if !env.Success {
		metrics.ObserveAPI(action, "rejected", start)
		return &RejectedError{Action: action, Message: env.Message}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			metrics.ObserveAPI(action, "error", start)
			return fmt.Errorf("%s: decode response: %w", action, err)
		}
	}
	metrics.ObserveAPI(action, "ok", start)
	c.logger.Debug("backend request", "action", action, "request_id", reqID, "duration", time.Since(start))
	return nil
}

func (c *Client) roundTrip(req *http.Request, action string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%s: status %d", action, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", action, err)
	}
	return data, nil
}

// Beacon dispatches a POST without waiting for, or reading, the response.
// It never blocks the caller and makes exactly one attempt. The request
// runs on a detached context so it survives the caller's shutdown; use
// Flush to give in-flight beacons a bounded chance to finish before exit.
func (c *Client) Beacon(action string, body any) error {
	payload, err := actionBody(action, body)
	if err != nil {
		return err
	}

	c.beacons.Add(1)
	go func() {
		defer c.beacons.Done()
		ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if err != nil {
			metrics.BeaconsTotal.WithLabelValues("error").Inc()
			return
		}
		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.BeaconsTotal.WithLabelValues("error").Inc()
			c.logger.Debug("beacon failed", "action", action, "error", err)
			return
		}
		resp.Body.Close()
		metrics.BeaconsTotal.WithLabelValues("sent").Inc()
	}()
	return nil
}

// Flush waits up to timeout for in-flight beacons. It reports whether all
// of them finished.
func (c *Client) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.beacons.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// actionBody flattens body's JSON fields next to the action name.
func actionBody(action string, body any) ([]byte, error) {
	fields := map[string]any{}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", action, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%s: request body must be a JSON object: %w", action, err)
		}
	}
	fields["action"] = action
	return json.Marshal(fields)
}

// opaqueID accepts an identifier the backend may send as a string or number.
type opaqueID string

func (id *opaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = opaqueID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("record id must be a string or number")
	}
	*id = opaqueID(strings.TrimSpace(n.String()))
	return nil
}
