package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/banshee-data/lesson.view/internal/app"
)

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client drives a lesson served by Server.
type Client struct {
	HTTP HTTPClient
	Base string
}

// NewClient returns a client for the server at base, for example
// "http://localhost:8090". A nil hc uses http.DefaultClient.
func NewClient(base string, hc HTTPClient) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{HTTP: hc, Base: strings.TrimRight(base, "/")}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lesson api: %d %s", e.Status, e.Message)
}

func (c *Client) State(ctx context.Context) (app.State, error) {
	var st app.State
	return st, c.do(ctx, http.MethodGet, "/scene", &st)
}

func (c *Client) Scenes(ctx context.Context) ([]string, error) {
	var out struct {
		Scenes []string `json:"scenes"`
	}
	err := c.do(ctx, http.MethodGet, "/scenes", &out)
	return out.Scenes, err
}

func (c *Client) Next(ctx context.Context) (app.State, error) {
	var st app.State
	return st, c.do(ctx, http.MethodPost, "/scene/next", &st)
}

func (c *Client) Prev(ctx context.Context) (app.State, error) {
	var st app.State
	return st, c.do(ctx, http.MethodPost, "/scene/prev", &st)
}

func (c *Client) GoTo(ctx context.Context, name string) (app.State, error) {
	var st app.State
	return st, c.do(ctx, http.MethodPost, "/scene/goto?name="+url.QueryEscape(name), &st)
}

// SetXR enters XR when on is true and exits it otherwise.
func (c *Client) SetXR(ctx context.Context, on bool) (app.State, error) {
	path := "/xr/exit"
	if on {
		path = "/xr/enter"
	}
	var st app.State
	return st, c.do(ctx, http.MethodPost, path, &st)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
