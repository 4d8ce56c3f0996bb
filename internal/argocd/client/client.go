package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd"
	"github.com/toyamagu-2021/argocd-exporter/internal/config"
	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
	"github.com/toyamagu-2021/argocd-exporter/internal/logging"
)

// DefaultTimeout bounds every applications-list request so a stuck
// server cannot hang the whole poll cycle.
const DefaultTimeout = 10 * time.Second

// Client is an authenticated ArgoCD API client bound to one server
type Client struct {
	httpClient *http.Client
	server     string
	baseURL    string
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates an API client for the given server configuration. The
// server URL keeps its configured form for metric labels; scheme-less
// addresses are requested over https.
func New(cfg config.ServerConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.URL, "/")
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &bearerTransport{
				base:  http.DefaultTransport,
				token: cfg.Token,
			},
		},
		server:  cfg.URL,
		baseURL: base + "/api/v1",
		logger:  logging.GetLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Server returns the configured server URL, the client's identity in
// metric labels and error details.
func (c *Client) Server() string {
	return c.server
}

// bearerTransport injects the bearer token into every outgoing request
type bearerTransport struct {
	base  http.RoundTripper
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

// ListApplications fetches the server's application list and returns
// one normalized status record per application. Any failure — network,
// timeout, non-2xx status, unparseable body — comes back as a client
// error carrying the server URL; callers treat the whole call as
// failed, never as partial data.
func (c *Client) ListApplications(ctx context.Context) ([]argocd.ApplicationStatus, error) {
	url := c.baseURL + "/applications"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to create request", err)
	}

	c.logger.WithFields(logrus.Fields{
		"server": c.server,
		"url":    url,
	}).Debug("Listing applications")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, errors.NewTimeoutError("request timed out", err, c.details())
		}
		return nil, errors.NewClientError("failed to execute request", err, c.details())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewClientError("failed to read response body", err, c.details())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"server": c.server,
			"status": resp.StatusCode,
		}).Debug("Applications list request failed")

		details := c.details()
		details["status"] = resp.StatusCode
		return nil, errors.NewClientError(
			"applications list request failed",
			fmt.Errorf("status code: %d", resp.StatusCode),
			details,
		)
	}

	var list argocd.ApplicationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errors.NewParsingError("failed to unmarshal applications list", err, c.details())
	}

	statuses := make([]argocd.ApplicationStatus, 0, len(list.Items))
	for _, app := range list.Items {
		statuses = append(statuses, argocd.Normalize(c.server, app))
	}

	return statuses, nil
}

func (c *Client) details() map[string]interface{} {
	return map[string]interface{}{"server": c.server}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
