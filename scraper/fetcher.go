// Package scraper pages through a feature-service query endpoint.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-survey-build/config"
	"github.com/aluiziolira/go-survey-build/logging"
	"github.com/aluiziolira/go-survey-build/models"
	"github.com/aluiziolira/go-survey-build/parser"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const pageCtxKey = "page"

// Fetcher wraps a synchronous colly collector and walks every page of a query.
type Fetcher struct {
	cfg       *config.Config
	base      *url.URL
	collector *colly.Collector
	guard     *pageGuard
	logger    zerolog.Logger
	Metrics   *Metrics
}

// pageResponse carries one response out of the collector callbacks.
type pageResponse struct {
	status int
	body   []byte
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	base, err := url.Parse(cfg.QueryURL)
	if err != nil {
		return nil, fmt.Errorf("parse query url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("query url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.MaxBodySize(cfg.MaxBodySize),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	guard, err := newPageGuard(guardSize)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		cfg:       cfg,
		base:      base,
		collector: collector,
		guard:     guard,
		logger:    logging.NewLogger("fetcher"),
		Metrics:   NewMetrics(),
	}
	f.configureHandlers()
	return f, nil
}

// SetTransport replaces the HTTP transport used by the collector.
func (f *Fetcher) SetTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		f.Metrics.IncRequest("started")
		f.logger.Debug().Str("url", r.URL.String()).Msg("Requesting page")
	})

	f.collector.OnResponse(func(r *colly.Response) {
		if page, ok := r.Ctx.GetAny(pageCtxKey).(*pageResponse); ok {
			page.status = r.StatusCode
			page.body = r.Body
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		if page, ok := r.Ctx.GetAny(pageCtxKey).(*pageResponse); ok {
			page.status = r.StatusCode
		}
	})
}

// PageURL returns the query URL for the page starting at offset.
func (f *Fetcher) PageURL(offset int) string {
	u := *f.base
	q := u.Query()
	q.Set("where", f.cfg.Where)
	q.Set("outFields", strings.Join(parser.OutFields, ","))
	q.Set("resultOffset", strconv.Itoa(offset))
	q.Set("resultRecordCount", strconv.Itoa(f.cfg.PageSize))
	q.Set("f", "json")
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchAll requests pages in increasing offset order until a page holds fewer
// records than the page size. When the total is an exact multiple of the page
// size this costs one trailing request that returns no records.
func (f *Fetcher) FetchAll(ctx context.Context) (*models.FetchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f.guard.reset()

	result := &models.FetchResult{StartTime: time.Now()}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch cancelled at offset %d: %w", offset, err)
		}

		records, err := f.fetchPage(offset)
		result.RequestCount++
		if err != nil {
			f.Metrics.IncError(errorTypeLabel(err))
			f.logger.Error().Err(err).Int("offset", offset).Str("category", errorTypeLabel(err)).Msg("Page fetch failed")
			return nil, err
		}

		count := len(records)
		f.logger.Info().Int("count", count).Int("offset", offset).Msg("Fetched records")
		f.Metrics.AddPage(count)
		result.Records = append(result.Records, records...)
		result.Pages = append(result.Pages, models.PageStat{Offset: offset, Count: count})

		if count < f.cfg.PageSize {
			break
		}
		offset += f.cfg.PageSize
	}
	result.EndTime = time.Now()

	f.logger.Info().
		Int("total", len(result.Records)).
		Int("requests", result.RequestCount).
		Dur("duration", result.EndTime.Sub(result.StartTime)).
		Msg("Total records fetched")
	return result, nil
}

func (f *Fetcher) fetchPage(offset int) ([]models.Record, error) {
	page := &pageResponse{}
	ctx := colly.NewContext()
	ctx.Put(pageCtxKey, page)

	hdr := http.Header{}
	hdr.Set("Accept", "application/json")

	start := time.Now()
	err := f.collector.Request(http.MethodGet, f.PageURL(offset), nil, ctx, hdr)
	f.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, classifyError(err, page.status))
	}
	f.Metrics.IncRequest("completed")

	if page.status != http.StatusOK {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, classifyError(nil, page.status))
	}

	decoded, err := parser.DecodePage(page.body)
	if err != nil {
		malformed := ErrMalformedBody{Offset: offset, Err: err}
		if f.cfg.MaxBodySize > 0 && len(page.body) >= f.cfg.MaxBodySize {
			malformed.BodyLimit = f.cfg.MaxBodySize
		}
		return nil, malformed
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, ErrAPI{
			Code:    decoded.Error.Code,
			Message: decoded.Error.Message,
			Details: decoded.Error.Details,
		})
	}
	records := parser.RecordsFromPage(decoded)
	if decoded.ExceededTransferLimit && len(records) < f.cfg.PageSize {
		// The service capped the page below the requested size, so this
		// short page ends the walk even though more records exist.
		f.logger.Warn().
			Int("offset", offset).
			Int("count", len(records)).
			Int("page_size", f.cfg.PageSize).
			Msg("Service returned a short page with more records pending; lower page_size to the service maximum")
	}
	if len(records) >= f.cfg.PageSize {
		if err := f.guard.check(offset, page.body); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		if statusCode != http.StatusOK {
			return ErrHTTPStatus{StatusCode: statusCode, Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
