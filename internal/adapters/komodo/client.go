package komodo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/komodo-ops/change-detector/internal/core/ports"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
)

const (
	queryTimeout = 10 * time.Second

	defaultRateLimitRPS = 20
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 100
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config carries the connection settings for the Komodo read API, built once
// at startup and passed by reference into the client.
type Config struct {
	BaseURL      string `yaml:"base_url" validate:"required,url"`
	APIKey       string `yaml:"api_key" validate:"required"`
	APISecret    string `yaml:"api_secret" validate:"required"`
	RateLimitRPS int    `yaml:"rate_limit_rps"`
}

// Client issues typed queries against the Komodo read API. All failure shapes
// are absorbed at this boundary: the caller always receives a (possibly
// empty) list of mappings.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     ports.Logger
}

var _ ports.ReadClient = (*Client)(nil)

func NewClient(cfg *Config, logger ports.Logger) *Client {
	rps := cfg.RateLimitRPS
	if rps < minRateLimitRPS || rps > maxRateLimitRPS {
		if rps != 0 {
			logger.Warnf(nil, "Invalid API RPS configured (%d), using default %d RPS. Valid range: %d-%d.",
				rps, defaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
		}
		rps = defaultRateLimitRPS
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: queryTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		logger:     logger,
	}
}

type readRequest struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Query posts a read request and decodes the response union: a list of
// mappings, a single mapping, an error mapping, or nothing. Transport
// failures and error-only responses collapse to an empty result after
// logging; a partial payload alongside an error marker is recovered as a
// single-element result with a warning.
func (c *Client) Query(ctx context.Context, requestType string, params map[string]any) []map[string]any {
	if params == nil {
		params = map[string]any{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			c.logger.Warnf(ctx, "Error waiting for API rate limiter: %v", err)
		}
		return nil
	}

	body, err := json.Marshal(readRequest{Type: requestType, Params: params})
	if err != nil {
		c.logger.Errorf(ctx, err, "API request encode failed (%s)", requestType)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.BaseURL+"/read", bytes.NewReader(body))
	if err != nil {
		c.logger.Errorf(ctx, err, "API request build failed (%s)", requestType)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("X-API-SECRET", c.cfg.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warnf(ctx, "API Timeout (%s): %v", requestType, apperrors.Wrap(err, apperrors.CodeAPITimeout, "request took too long"))
		} else {
			c.logger.Errorf(ctx, apperrors.Wrap(err, apperrors.CodeAPIError, "transport failure"), "API Exception (%s)", requestType)
		}
		return nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Errorf(ctx, err, "API response read failed (%s)", requestType)
		return nil
	}

	return c.decodeResponse(ctx, requestType, raw)
}

// decodeResponse collapses the duck-typed response shapes into a uniform
// list-of-mappings result.
func (c *Client) decodeResponse(ctx context.Context, requestType string, raw []byte) []map[string]any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Errorf(ctx, apperrors.Wrap(err, apperrors.CodeAPIError, "response was not valid JSON"), "API response decode failed (%s)", requestType)
		return nil
	}

	switch data := decoded.(type) {
	case nil:
		return nil
	case []any:
		results := make([]map[string]any, 0, len(data))
		for _, item := range data {
			if m, ok := item.(map[string]any); ok {
				results = append(results, m)
			}
		}
		return results
	case map[string]any:
		if errVal, hasErr := data["error"]; hasErr {
			if len(data) > 1 {
				// Some endpoints return partial data alongside an error marker.
				c.logger.Warnf(ctx, "API Warning (%s): %v", requestType, apperrors.Newf(apperrors.CodeAPIPartialError, "%v", errVal))
				return []map[string]any{data}
			}
			c.logger.Errorf(ctx, apperrors.Newf(apperrors.CodeAPIError, "%v", errVal), "API Error (%s)", requestType)
			return nil
		}
		if len(data) == 0 {
			return nil
		}
		return []map[string]any{data}
	default:
		c.logger.Errorf(ctx, apperrors.Newf(apperrors.CodeAPIError, "unexpected response shape %T", decoded), "API response malformed (%s)", requestType)
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
