package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Downloader fetches remote images, such as product photos and operator results.
type Downloader struct {
	client   *resty.Client
	maxBytes int64
}

// NewDownloader returns a Downloader that refuses bodies over maxBytes while reading them.
// Zero means no limit.
func NewDownloader(maxBytes int64) *Downloader {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", browserUserAgent)
	if maxBytes > 0 {
		client.SetResponseBodyLimit(int(maxBytes))
	}
	return &Downloader{client: client, maxBytes: maxBytes}
}

func (d *Downloader) FetchImage(ctx context.Context, url string) ([]byte, error) {
	res, err := d.client.R().SetContext(ctx).Get(url)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, fmt.Errorf("image %s is larger than %d bytes", url, d.maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch image %s, status: %d", url, res.StatusCode())
	}
	return res.Body(), nil
}
