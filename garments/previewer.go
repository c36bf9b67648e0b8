// Package garments reads product pages behind garment links.
package garments

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/raushankrgupta/fitting-room/models"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxRedirects = 10
)

type Previewer struct {
	client       *resty.Client
	headless     bool
	allowPrivate bool
	render       func(ctx context.Context, url string) (string, error)
}

type Option func(*Previewer)

// WithHeadless re-fetches pages with a headless browser when plain HTTP yields no image.
func WithHeadless() Option {
	return func(p *Previewer) {
		p.headless = true
	}
}

// WithPrivateNetworks lets links reach loopback and private addresses.
func WithPrivateNetworks() Option {
	return func(p *Previewer) {
		p.allowPrivate = true
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *resty.Client) Option {
	return func(p *Previewer) {
		p.client = client
	}
}

// NewPreviewer returns a Previewer that only fetches public addresses unless
// WithPrivateNetworks is given.
func NewPreviewer(opts ...Option) *Previewer {
	p := &Previewer{render: renderHeadless}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = newClient(p.allowPrivate)
	}
	return p
}

func newClient(allowPrivate bool) *resty.Client {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeaders(map[string]string{
			"User-Agent":                userAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Upgrade-Insecure-Requests": "1",
		})
	if !allowPrivate {
		client.SetTransport(publicOnlyTransport())
	}
	return client
}

// Preview follows the link, including shortener redirects, and reads the product title
// and image from the page it lands on. Relative image URLs are resolved against that page.
func (p *Previewer) Preview(ctx context.Context, link string) (*models.GarmentPreview, error) {
	final, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid garment link %q: %w", link, err)
	}
	if !p.allowPrivate {
		if err := checkLink(final); err != nil {
			return nil, err
		}
	}

	res, err := p.client.R().SetContext(ctx).Get(link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", link, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch %s: status %d", link, res.StatusCode())
	}

	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", final, err)
	}

	preview := &models.GarmentPreview{URL: link, FinalURL: final.String()}
	title, image := extract(final.Host, doc)

	if image == "" && p.headless {
		slog.Info("no product image over HTTP, trying headless browser", "url", final.String())
		if rendered, err := p.fetchRendered(ctx, final.String()); err != nil {
			slog.Warn("headless fetch failed", "url", final.String(), "error", err)
		} else {
			hTitle, hImage := extract(final.Host, rendered)
			if title == "" {
				title = hTitle
			}
			image = hImage
		}
	}

	preview.Title = title
	preview.ImageURL = resolve(final, image)
	return preview, nil
}

func (p *Previewer) fetchRendered(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := p.render(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
