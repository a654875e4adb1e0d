package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/resilience"
)

// HTTPScraper consumes pre-extracted name feeds over HTTP. The upstream
// extraction service parses the HTML or PDF source and exposes the rows as a
// JSON array; this adapter only fetches and decodes them.
type HTTPScraper struct {
	client *http.Client
	retry  resilience.RetryConfig
	log    *zap.Logger
}

// NewHTTPScraper creates an HTTPScraper with the given request timeout.
func NewHTTPScraper(timeout time.Duration) *HTTPScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScraper{
		client: &http.Client{Timeout: timeout},
		retry:  resilience.DefaultRetryConfig(),
		log:    zap.L().With(zap.String("component", "http_scraper")),
	}
}

type feedRow struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Party string `json:"party"`
}

// Scrape fetches the feed at url and decodes its rows. Kind is passed
// through as a query parameter so one feed endpoint can serve all source
// layouts. Failures come back as *Error so callers can skip the subject.
func (s *HTTPScraper) Scrape(ctx context.Context, url string, kind Kind) ([]RawName, error) {
	var body []byte

	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrapf(err, "scrape: build request for %s", url)
		}
		q := req.URL.Query()
		q.Set("kind", string(kind))
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return resilience.NewTransientError(eris.Wrapf(err, "scrape: fetch %s", url), 0)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("scrape: fetch %s: status %d", url, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return resilience.NewTransientError(eris.Wrapf(err, "scrape: read %s", url), 0)
		}
		return nil
	})
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	var rows []feedRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &Error{URL: url, Err: eris.Wrapf(err, "scrape: decode feed %s", url)}
	}

	names := make([]RawName, 0, len(rows))
	for _, r := range rows {
		names = append(names, RawName{Name: r.Name, Role: r.Role, Party: r.Party})
	}

	s.log.Debug("feed fetched",
		zap.String("url", url),
		zap.String("kind", string(kind)),
		zap.Int("rows", len(names)),
	)
	return names, nil
}
