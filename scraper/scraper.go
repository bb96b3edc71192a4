package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/storefront-crm/lead-ingest-service/leads"
)

// Scraper fetches a URL and extracts a semi-structured store record from it.
// Implementations must fail fast rather than hang: a hung scrape stalls its
// whole chunk.
type Scraper interface {
	Scrape(ctx context.Context, url string) (map[string]any, error)
}

const defaultUserAgent = "lead-ingest-service/1.0"

// Config holds the HTTP scraper knobs.
type Config struct {
	Timeout    time.Duration
	RatePerSec float64
	UserAgent  string
}

// HTTPScraper fetches store pages over HTTP and extracts name, address,
// contact details, and a markdown rendering of the page body.
type HTTPScraper struct {
	client    *http.Client
	limiter   *rate.Limiter
	converter *md.Converter
	userAgent string
}

func NewHTTPScraper(cfg Config) *HTTPScraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &HTTPScraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		converter: md.NewConverter("", true, nil),
		userAgent: cfg.UserAgent,
	}
}

func (s *HTTPScraper) Scrape(ctx context.Context, rawURL string) (map[string]any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for scrape slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	record := s.extract(doc, rawURL)
	if record["name"] == nil {
		return nil, fmt.Errorf("no extractable store name at %s", rawURL)
	}

	log.Debug().
		Str("url", rawURL).
		Msg("Scraped store page")

	return record, nil
}

func (s *HTTPScraper) extract(doc *goquery.Document, rawURL string) map[string]any {
	record := map[string]any{
		"url":        rawURL,
		"scraped_at": time.Now().UTC().Format(time.RFC3339),
	}

	name := leads.NormalizeText(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if name == "" {
		name = leads.NormalizeText(doc.Find("title").First().Text())
	}
	if name != "" {
		record["name"] = name
	}

	if desc := leads.NormalizeText(doc.Find("meta[name='description']").AttrOr("content", "")); desc != "" {
		record["description"] = desc
	}

	address := leads.NormalizeText(doc.Find("address").First().Text())
	if address == "" {
		address = leads.NormalizeText(doc.Find("[itemprop='address']").First().Text())
	}
	if address != "" {
		record["address"] = address
	}

	if href, ok := doc.Find("a[href^='tel:']").First().Attr("href"); ok {
		if phone := leads.NormalizeText(strings.TrimPrefix(href, "tel:")); phone != "" {
			record["phone"] = phone
		}
	}

	if body := doc.Find("body"); body.Length() > 0 {
		if content := strings.TrimSpace(s.converter.Convert(body)); content != "" {
			record["content_markdown"] = content
		}
	}

	return record
}
