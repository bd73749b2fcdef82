package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// CanvasClient talks to the Canvas REST API. It implements
// pipeline.GradeSource.
type CanvasClient struct {
	Config  *config.Config
	Client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCanvasClient validates the base URL and builds a client. The token is
// read from cfg.Token.
func NewCanvasClient(cfg *config.Config, logger *zap.Logger) (*CanvasClient, error) {
	if err := validateBaseURL(cfg.APIURL); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	burst := cfg.MaxParallelRequests
	if burst < 1 {
		burst = 1
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &CanvasClient{
		Config:  cfg,
		Client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return appErrors.CloneWrap(appErrors.ErrInvalidBaseURL, "", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return appErrors.Clone(appErrors.ErrInvalidBaseURL,
			fmt.Sprintf("the canvas URL you specified (%q) is invalid", raw))
	}
	return nil
}

// MakeRequest performs one API call. 429 and 5xx responses and transport
// errors are retried with exponential backoff; other failures are mapped onto
// typed errors immediately.
func (c *CanvasClient) MakeRequest(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, http.Header, error) {
	var lastErr error
	path := strings.Split(url, "?")[0]

	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("request '%s %s' cancelled via context: %w", method, path, err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, nil, appErrors.CloneWrap(appErrors.ErrInvalidBaseURL, "", err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		c.logger.Debug("canvas request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.Config.MaxRetries+1),
		)

		resp, err := c.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("request '%s %s' cancelled via context: %w", method, path, ctx.Err())
			}
			lastErr = fmt.Errorf("http client error on attempt %d: %w", attempt+1, err)
		} else {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
			case resp.StatusCode >= 400:
				return nil, nil, statusError(resp, bodyBytes)
			case readErr != nil:
				lastErr = fmt.Errorf("error reading response body: %w", readErr)
			default:
				return bodyBytes, resp.Header, nil
			}
		}

		if attempt < c.Config.MaxRetries {
			delay := c.Config.RetryDelay * time.Duration(1<<attempt)
			c.logger.Warn("canvas request failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, nil, fmt.Errorf("request cancelled during retry wait after %d attempts for %s: %w", attempt+1, path, ctx.Err())
			}
		}
	}

	return nil, nil, appErrors.CloneWrap(appErrors.ErrUpstream,
		fmt.Sprintf("request to %s failed after %d attempts", path, c.Config.MaxRetries+1), lastErr)
}

// statusError maps a non-retryable Canvas response onto the run's error
// classes. Canvas answers an invalid token with 401 and a WWW-Authenticate
// header, and a valid token without course access with a bare 401 or 403.
func statusError(resp *http.Response, body []byte) error {
	cause := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if resp.Header.Get("WWW-Authenticate") != "" {
			return appErrors.CloneWrap(appErrors.ErrInvalidToken, "", cause)
		}
		return appErrors.CloneWrap(appErrors.ErrUnauthorizedCourse, "", cause)
	case http.StatusForbidden:
		return appErrors.CloneWrap(appErrors.ErrUnauthorizedCourse, "", cause)
	case http.StatusNotFound:
		return appErrors.CloneWrap(appErrors.ErrNotFound, "", cause)
	}
	return appErrors.CloneWrap(appErrors.ErrUpstream, "", cause)
}

func (c *CanvasClient) endpoint(name string, ids ...interface{}) string {
	return c.Config.APIURL + fmt.Sprintf(c.Config.Endpoints[name], ids...)
}

func (c *CanvasClient) getJSON(ctx context.Context, rawURL string, out interface{}) (http.Header, error) {
	body, header, err := c.MakeRequest(ctx, http.MethodGet, rawURL, c.authHeaders(), nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrUpstream,
			fmt.Sprintf("error parsing API response from %s", strings.Split(rawURL, "?")[0]), err)
	}
	return header, nil
}

// FetchPage downloads one page of a list endpoint.
func FetchPage[T any](ctx context.Context, c *CanvasClient, rawURL string) (models.Page[T], error) {
	var page models.Page[T]
	header, err := c.getJSON(ctx, rawURL, &page.Items)
	if err != nil {
		return page, err
	}
	page.NextURL = nextLink(header.Get("Link"))
	return page, nil
}

// FetchAll follows the Link header from the first page to the last.
func FetchAll[T any](ctx context.Context, c *CanvasClient, endpoint string, params url.Values) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", strconv.Itoa(c.Config.PageSize))

	start := time.Now()
	next := endpoint + "?" + params.Encode()
	var all []T
	pages := 0

	for next != "" {
		page, err := FetchPage[T](ctx, c, next)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		pages++
		next = page.NextURL
		c.logProgress(start, strings.Split(endpoint, "?")[0], pages, len(all))
	}

	return all, nil
}

func (c *CanvasClient) logProgress(startTime time.Time, endpoint string, pages, total int) {
	c.logger.Info("page fetched",
		zap.String("endpoint", endpoint),
		zap.Int("pages", pages),
		zap.Int("items", total),
		zap.Float64("elapsed_s", time.Since(startTime).Seconds()),
	)
}

// nextLink extracts the rel="next" target of an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.ToLower(strings.TrimSpace(key)) != "rel" {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(value, `"`)) {
				if rel == "next" {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}
