package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

var ErrNetwork = errors.New("tile fetch failed")

const (
	DefaultUserAgent = "basemap/1.0 (+https://github.com/basemap)"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	// tile servers ask for modest request rates
	DefaultRate = 8.0
)

// Fetcher downloads single tiles over HTTP, one at a time.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	retries   uint64
	initial   time.Duration
	log       *zap.Logger
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRate sets requests per second; zero or less disables pacing.
func WithRate(rps float64) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetries sets how many times a failed request is retried and the
// first backoff interval.
func WithRetries(n int, initial time.Duration) Option {
	return func(f *Fetcher) {
		if n < 0 {
			n = 0
		}
		f.retries = uint64(n)
		if initial > 0 {
			f.initial = initial
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(f *Fetcher) { f.log = l } }

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRate), 1),
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		initial:   500 * time.Millisecond,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch downloads and decodes one tile. Transport errors, 429 and 5xx are
// retried with exponential backoff; anything else fails at once.
func (f *Fetcher) Fetch(ctx context.Context, p Provider, t maptile.Tile) (image.Image, error) {
	url := p.TileURL(t)
	var img image.Image
	op := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("GET %s: %s", url, resp.Status)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}
		img, _, err = image.Decode(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.initial
	b := backoff.WithContext(backoff.WithMaxRetries(eb, f.retries), ctx)
	notify := func(err error, wait time.Duration) {
		f.log.Debug("tile retry", zap.String("url", url), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return img, nil
}
