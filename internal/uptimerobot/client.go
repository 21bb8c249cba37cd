package uptimerobot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/uptimectlhq/uptimectl/internal/metrics"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// DefaultBaseURL is the UptimeRobot v1 API endpoint.
const DefaultBaseURL = "https://api.uptimerobot.com"

const userAgent = "uptimectl/0.0.1"

// API action names. The service routes on the path segment and reads all
// parameters from the query string.
const (
	actionGetMonitors   = "getMonitors"
	actionNewMonitor    = "newMonitor"
	actionEditMonitor   = "editMonitor"
	actionDeleteMonitor = "deleteMonitor"
)

// monitorTypeHTTP is the only monitor type this tool manages.
const monitorTypeHTTP = "1"

// EditStatus is the status code accepted by the editMonitor action. It is
// distinct from the runtime status reported by getMonitors.
type EditStatus string

const (
	EditPause  EditStatus = "0"
	EditResume EditStatus = "1"
)

// Filter selects monitors for a list call: by exact id, or by a free-text
// search over names and URLs. Exactly one field should be set.
type Filter struct {
	ID     string
	Search string
}

// TransportError indicates the HTTP exchange itself did not complete with a
// success status. The remote payload, if any, was not consulted.
type TransportError struct {
	Action     string
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("uptimerobot: %s: unexpected status %s", e.Action, e.Status)
}

// APIError indicates a well-formed response whose logical status reports
// failure. Message carries the remote service's diagnostic text.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("uptimerobot: %s failed", e.Action)
	}
	return fmt.Sprintf("uptimerobot: %s failed: %s", e.Action, e.Message)
}

// Config holds the static configuration for a Client.
type Config struct {
	APIKey  string
	BaseURL string
}

// Dependencies allow test overrides for HTTP client, rate limiter, metrics
// and logging.
type Dependencies struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Metrics    *metrics.Store
	Logger     *log.Logger
}

// Client is a typed adapter over the UptimeRobot v1 monitor API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	metrics    *metrics.Store
	logger     *log.Logger
}

// NewClient builds a Client from configuration and dependencies.
func NewClient(cfg Config, deps Dependencies) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		limiter:    deps.Limiter,
		metrics:    deps.Metrics,
		logger:     logger,
	}, nil
}

// ListMonitors returns the monitors matching the filter. An empty result is
// not an error; existence decisions belong to the caller.
func (c *Client) ListMonitors(ctx context.Context, filter Filter) ([]types.MonitorRecord, error) {
	params := url.Values{}
	if filter.ID != "" {
		params.Set("monitors", filter.ID)
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}

	resp, err := c.do(ctx, actionGetMonitors, params)
	if err != nil {
		return nil, err
	}

	if resp.Monitors == nil {
		return nil, nil
	}
	records := make([]types.MonitorRecord, 0, len(resp.Monitors.Monitor))
	for _, m := range resp.Monitors.Monitor {
		records = append(records, types.MonitorRecord{
			ID:           string(m.ID),
			FriendlyName: string(m.FriendlyName),
			URL:          string(m.URL),
			Status:       types.MonitorStatus(m.Status),
		})
	}
	return records, nil
}

// CreateMonitor registers a new HTTP monitor and returns its id. Alert
// contacts are omitted from the request entirely when none are given.
func (c *Client) CreateMonitor(ctx context.Context, friendlyName, monitorURL string, alertContactIDs []string) (string, error) {
	params := url.Values{}
	params.Set("monitorFriendlyName", friendlyName)
	params.Set("monitorURL", monitorURL)
	params.Set("monitorType", monitorTypeHTTP)
	if len(alertContactIDs) > 0 {
		params.Set("monitorAlertContacts", strings.Join(alertContactIDs, "-"))
	}

	resp, err := c.do(ctx, actionNewMonitor, params)
	if err != nil {
		return "", err
	}
	if resp.Monitor == nil || resp.Monitor.ID == "" {
		return "", fmt.Errorf("uptimerobot: %s response missing monitor id", actionNewMonitor)
	}
	if c.metrics != nil {
		c.metrics.ObserveMutation()
	}
	return string(resp.Monitor.ID), nil
}

// EditMonitor sets the monitor's status, pausing or resuming it.
func (c *Client) EditMonitor(ctx context.Context, id string, status EditStatus) error {
	params := url.Values{}
	params.Set("monitorID", id)
	params.Set("monitorStatus", string(status))

	if _, err := c.do(ctx, actionEditMonitor, params); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ObserveMutation()
	}
	return nil
}

// DeleteMonitor removes the monitor.
func (c *Client) DeleteMonitor(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("monitorID", id)

	if _, err := c.do(ctx, actionDeleteMonitor, params); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ObserveMutation()
	}
	return nil
}

// do issues one API call. Parameters are constructed fresh per call; the
// credential and encoding directives are added here and never shared.
func (c *Client) do(ctx context.Context, action string, params url.Values) (*apiResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	params.Set("apiKey", c.apiKey)
	params.Set("format", "json")
	params.Set("noJsonCallback", "1")

	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, action, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.metrics != nil {
		c.metrics.ObserveCall(action)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observeFailure()
		return nil, fmt.Errorf("call %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observeFailure()
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observeFailure()
		return nil, &TransportError{Action: action, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.observeFailure()
		return nil, fmt.Errorf("decode %s response: %w", action, err)
	}

	if decoded.Stat != "ok" {
		c.observeFailure()
		c.logger.Printf("%s rejected: %s", action, decoded.Message)
		return nil, &APIError{Action: action, Message: string(decoded.Message)}
	}

	return &decoded, nil
}

func (c *Client) observeFailure() {
	if c.metrics != nil {
		c.metrics.ObserveFailure()
	}
}

// apiResponse covers every v1 response shape this client consumes. The v1
// API is inconsistent about encoding ids and status codes as JSON strings
// versus numbers, hence flexString.
type apiResponse struct {
	Stat     string            `json:"stat"`
	Message  flexString        `json:"message"`
	Monitors *monitorsEnvelope `json:"monitors"`
	Monitor  *monitorPayload   `json:"monitor"`
}

type monitorsEnvelope struct {
	Monitor []monitorPayload `json:"monitor"`
}

type monitorPayload struct {
	ID           flexString `json:"id"`
	FriendlyName flexString `json:"friendlyname"`
	URL          flexString `json:"url"`
	Status       flexString `json:"status"`
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
