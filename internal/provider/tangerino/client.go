package tangerino

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrReadOnly is returned when a request would reach a write endpoint.
var ErrReadOnly = errors.New("provider integration is read-only")

// forbiddenKeywords block any URL that looks like it could change data on
// the provider side.
var forbiddenKeywords = []string{
	"adjustment", "adjust", "record", "insert", "update", "delete", "remove",
	"justify", "justification", "manual", "correction", "edit", "create",
	"modify", "write", "post", "put", "patch",
}

const maxBodyBytes = 32 << 20

type Config struct {
	BaseURL       string
	APIKey        string
	APIKeyHeader  string
	EmployeesPath string
	PunchesPath   string
	// Location applies to timestamps sent without an offset.
	Location *time.Location
}

type Client struct {
	cfg    Config
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "Authorization"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	settings := gobreaker.Settings{
		Name:        "Punch-Provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchEmployees lists the provider's employees. Entries that cannot be
// normalised are skipped with a warning.
func (c *Client) FetchEmployees(ctx context.Context) ([]Employee, error) {
	body, err := c.get(ctx, c.cfg.BaseURL+c.cfg.EmployeesPath)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body, employeeListKeys)
	if err != nil {
		return nil, err
	}

	employees := make([]Employee, 0, len(items))
	for _, raw := range items {
		e, err := normalizeEmployee(raw)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Skipping provider employee")
			continue
		}
		employees = append(employees, e)
	}
	return employees, nil
}

// FetchPunches lists punches between start and end, both as YYYY-MM-DD.
func (c *Client) FetchPunches(ctx context.Context, start, end time.Time) ([]Punch, error) {
	u, err := url.Parse(c.cfg.BaseURL + c.cfg.PunchesPath)
	if err != nil {
		return nil, fmt.Errorf("punches url: %w", err)
	}
	q := u.Query()
	q.Set("start", start.Format(time.DateOnly))
	q.Set("end", end.Format(time.DateOnly))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body, punchListKeys)
	if err != nil {
		return nil, err
	}

	punches := make([]Punch, 0, len(items))
	for _, raw := range items {
		p, err := normalizePunch(raw, c.cfg.Location)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Skipping provider punch")
			continue
		}
		punches = append(punches, p)
	}
	return punches, nil
}

// TestConnection reports whether the employees endpoint answers.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, c.cfg.BaseURL+c.cfg.EmployeesPath)
	return err
}

// CheckReadOnly rejects URLs whose path or query carries a write keyword.
func CheckReadOnly(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse provider url: %w", err)
	}
	target := strings.ToLower(u.Path + "?" + u.RawQuery)
	for _, kw := range forbiddenKeywords {
		if strings.Contains(target, kw) {
			return fmt.Errorf("%w: %q contains %q", ErrReadOnly, u.Path, kw)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := CheckReadOnly(rawURL); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Blocked provider request")
		return nil, err
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call provider: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("provider returned non-successful status code: %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Debug().Str("url", rawURL).Msg("Provider query done")
	return out.([]byte), nil
}
