// Package nodes provides clients for the different nodes on thenewboston
// network. Every node is built on top of a Server which knows how to talk
// JSON over HTTP to a single node.
package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// DefaultTimeout is used when no http client is provided.
const DefaultTimeout = 30 * time.Second

// ResponseError is returned when a node responds with a non 2xx status.
type ResponseError struct {
	Method string
	URL    string
	Status int
	Body   string
}

// Error implements the error interface.
func (re *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", re.Method, re.URL, re.Status, re.Body)
}

// IsResponseError checks if an error of type ResponseError exists.
func IsResponseError(err error) bool {
	var re *ResponseError
	return errors.As(err, &re)
}

// =============================================================================

// Server is the base API for a node.
type Server struct {
	url    string
	client *http.Client
}

// Option changes the default behavior of a Server.
type Option func(*Server)

// WithHTTPClient sets the http client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.client = client
	}
}

// NewServer constructs a server for the node at the url. The url is
// reduced to its origin, scheme://host:port.
func NewServer(nodeURL string, options ...Option) (*Server, error) {
	origin, err := Origin(nodeURL)
	if err != nil {
		return nil, err
	}

	s := Server{
		url:    origin,
		client: &http.Client{Timeout: DefaultTimeout},
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// URL returns the origin of the node.
func (s *Server) URL() string {
	return s.url
}

// Config retrieves the config details of the node.
func (s *Server) Config(ctx context.Context) (ConfigResponse, error) {
	var cfg ConfigResponse
	if err := s.Get(ctx, "/config", nil, &cfg); err != nil {
		return ConfigResponse{}, err
	}
	return cfg, nil
}

// Get performs a get request against the endpoint and decodes the
// response into v.
func (s *Server) Get(ctx context.Context, endpoint string, query url.Values, v any) error {
	u := s.url + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return s.do(ctx, http.MethodGet, u, nil, v)
}

// Post performs a post request with the data encoded as JSON.
func (s *Server) Post(ctx context.Context, endpoint string, data any, v any) error {
	return s.send(ctx, http.MethodPost, endpoint, data, v)
}

// Patch performs a patch request with the data encoded as JSON.
func (s *Server) Patch(ctx context.Context, endpoint string, data any, v any) error {
	return s.send(ctx, http.MethodPatch, endpoint, data, v)
}

func (s *Server) send(ctx context.Context, method string, endpoint string, data any, v any) error {
	body, err := models.Canonical(data)
	if err != nil {
		return fmt.Errorf("encoding %s data: %w", endpoint, err)
	}

	return s.do(ctx, method, s.url+endpoint, body, v)
}

func (s *Server) do(ctx context.Context, method string, u string, body []byte, v any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ResponseError{
			Method: method,
			URL:    u,
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(msg)),
		}
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", u, err)
	}

	return nil
}

// =============================================================================

// Origin reduces the url to scheme://host:port with the default port
// filled in when it's missing.
func Origin(nodeURL string) (string, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return "", fmt.Errorf("parsing node url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("node url %q: scheme must be http or https", nodeURL)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("node url %q: missing host", nodeURL)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	return fmt.Sprintf("%s://%s", u.Scheme, net.JoinHostPort(u.Hostname(), port)), nil
}

// FormatNodeURL builds the url of a node from the parts provided in a
// node's config.
func FormatNodeURL(protocol string, host string, port uint16) string {
	return fmt.Sprintf("%s://%s", protocol, net.JoinHostPort(host, strconv.Itoa(int(port))))
}
