package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"parcelsales/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// ErrFetchFailed is returned once every attempt for a parcel has failed.
var ErrFetchFailed = errors.New("fetch failed")

// Fetcher returns the page markup for a parcel.
type Fetcher interface {
	Fetch(ctx context.Context, parcelID string) ([]byte, error)
}

// HTTPFetcher requests parcel pages one at a time, retrying every failure the
// same way: a 404 costs as many attempts as a timeout.
type HTTPFetcher struct {
	client   *resty.Client
	url      string
	param    string
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// New builds a fetcher from the crawl settings. Proxies, when configured,
// are used round-robin.
func New(cfg config.CrawlConfig, logger *zap.Logger) (*HTTPFetcher, error) {
	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetHeaders(cfg.Headers).
		SetQueryParams(cfg.Query).
		SetLogger(logger.Sugar())

	if len(cfg.Proxies) > 0 {
		p, err := RoundRobinProxySwitcher(cfg.Proxies...)
		if err != nil {
			return nil, fmt.Errorf("proxies: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = p
		client.SetTransport(transport)
	}

	return &HTTPFetcher{
		client:   client,
		url:      cfg.BaseURL,
		param:    cfg.ParcelParam,
		attempts: cfg.RetryLimit,
		backoff:  cfg.RetryBackoff(),
		logger:   logger,
	}, nil
}

// Fetch returns the page for parcelID decoded to UTF-8. Between failed
// attempts it sleeps backoff*attempt.
func (f *HTTPFetcher) Fetch(ctx context.Context, parcelID string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		body, err := f.get(ctx, parcelID)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		f.logger.Warn("fetch attempt failed",
			zap.String("parcel", parcelID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < f.attempts {
			if err := sleep(ctx, f.backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: parcel %s after %d attempts: %v", ErrFetchFailed, parcelID, f.attempts, lastErr)
}

func (f *HTTPFetcher) get(ctx context.Context, parcelID string) ([]byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		SetQueryParam(f.param, parcelID).
		Get(f.url)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("error status code:%d", res.StatusCode())
	}
	return toUTF8(res.Body(), res.Header().Get("Content-Type"))
}

// toUTF8 decodes body using the charset from the Content-Type header or the
// markup's own meta tags.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	e, _, _ := charset.DetermineEncoding(body, contentType)
	out, err := e.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
