package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/pflag"

	"github.com/smazurov/ledd/internal/api/models"
	"github.com/smazurov/ledd/internal/version"
)

const (
	defaultServer  = "http://127.0.0.1:8090"
	requestTimeout = 10 * time.Second
)

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("daemon returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Detail
}

// ClientOptions configures how the CLI reaches the daemon.
type ClientOptions struct {
	Server   string
	Username string
	Password string
	Retries  int
}

// addFlags registers the connection flags. Defaults come from the
// environment the daemon itself reads.
func (o *ClientOptions) addFlags(fs *pflag.FlagSet) {
	server := os.Getenv("LEDD_SERVER")
	if server == "" {
		server = defaultServer
	}
	fs.StringVar(&o.Server, "server", server, "Daemon URL")
	fs.StringVar(&o.Username, "user", os.Getenv("LEDD_AUTH_USERNAME"), "Basic auth username")
	fs.StringVar(&o.Password, "password", os.Getenv("LEDD_AUTH_PASSWORD"), "Basic auth password")
	fs.IntVar(&o.Retries, "retries", 2, "Connection retries while the daemon starts")
}

// Client calls the daemon's HTTP API.
type Client struct {
	base     string
	username string
	password string
	http     *retryablehttp.Client
}

// NewClient creates a client. Only connection failures are retried; any
// reply from the daemon is final.
func NewClient(opts ClientOptions) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = requestTimeout
	rc.CheckRetry = func(ctx context.Context, _ *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	server := opts.Server
	if server == "" {
		server = defaultServer
	}
	return &Client{
		base:     strings.TrimSuffix(server, "/"),
		username: opts.Username,
		password: opts.Password,
		http:     rc,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var raw any
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		raw = data
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, raw)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to LED daemon: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// decodeError reads an RFC 9457 problem body.
func decodeError(status int, data []byte) error {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(data, &problem) != nil {
		return apiErr
	}
	apiErr.Detail = problem.Detail
	if apiErr.Detail == "" {
		apiErr.Detail = problem.Title
	}
	if len(problem.Errors) > 0 && problem.Errors[0].Message != "" {
		apiErr.Detail += ": " + problem.Errors[0].Message
	}
	return apiErr
}

// List returns the LEDs, aliases and ALL.
func (c *Client) List(ctx context.Context) ([]models.LEDEntry, error) {
	var out models.LEDListData
	err := c.do(ctx, http.MethodGet, "/api/leds", nil, &out)
	return out.LEDs, err
}

// States returns the natively supported states.
func (c *Client) States(ctx context.Context) ([]string, error) {
	var out models.StatesData
	err := c.do(ctx, http.MethodGet, "/api/leds/states", nil, &out)
	return out.States, err
}

// Get queries targets.
func (c *Client) Get(ctx context.Context, names ...string) ([]models.LEDStateRecord, error) {
	var out models.LEDStatesData
	err := c.do(ctx, http.MethodPost, "/api/leds/get", models.LEDGetRequestData{LEDs: names}, &out)
	return out.LEDs, err
}

// Set applies state changes in order.
func (c *Client) Set(ctx context.Context, reqs ...models.LEDSetData) ([]models.LEDResultRecord, error) {
	var out models.LEDResultsData
	err := c.do(ctx, http.MethodPost, "/api/leds/set", models.LEDSetRequestData{LEDs: reqs}, &out)
	return out.LEDs, err
}

// Activate turns a priority on for a target.
func (c *Client) Activate(ctx context.Context, name, priority, lockID string) ([]models.LEDResultRecord, error) {
	return c.activation(ctx, "activate", name, priority, lockID)
}

// Deactivate turns a priority off for a target.
func (c *Client) Deactivate(ctx context.Context, name, priority, lockID string) ([]models.LEDResultRecord, error) {
	return c.activation(ctx, "deactivate", name, priority, lockID)
}

func (c *Client) activation(ctx context.Context, action, name, priority, lockID string) ([]models.LEDResultRecord, error) {
	var out models.LEDResultsData
	path := "/api/leds/" + url.PathEscape(name) + "/" + action
	err := c.do(ctx, http.MethodPost, path, models.ActivationData{Priority: priority, LockID: lockID}, &out)
	return out.LEDs, err
}

// Patterns lists the defined patterns.
func (c *Client) Patterns(ctx context.Context) ([]string, error) {
	var out models.PatternListData
	err := c.do(ctx, http.MethodGet, "/api/patterns", nil, &out)
	return out.Patterns, err
}

// Playing lists the playing patterns.
func (c *Client) Playing(ctx context.Context) ([]string, error) {
	var out models.PatternListData
	err := c.do(ctx, http.MethodGet, "/api/patterns/playing", nil, &out)
	return out.Patterns, err
}

// Play starts a pattern.
func (c *Client) Play(ctx context.Context, name string, retrigger bool) error {
	body := struct {
		Retrigger bool `json:"retrigger"`
	}{retrigger}
	return c.do(ctx, http.MethodPost, "/api/patterns/"+url.PathEscape(name)+"/play", body, nil)
}

// Stop stops a pattern.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/patterns/"+url.PathEscape(name)+"/stop", nil, nil)
}
