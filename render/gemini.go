// Package render produces try-on photos with a generative image model.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/raushankrgupta/fitting-room/tryon"
	"google.golang.org/api/option"
)

var ErrQuotaExceeded = errors.New("image model quota exceeded")

const tryOnPrompt = `
I want the clothing product images to be worn by the person in the first image.
Keep the person's face, body, pose and background exactly as they are.
Only replace the clothing with the garments shown in the product images.
Return a single photorealistic image.
`

type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

type Gemini struct {
	client  *genai.Client
	model   string
	fetcher ImageFetcher
}

func NewGemini(ctx context.Context, apiKey, model string, fetcher ImageFetcher) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, fetcher: fetcher}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// Render sends the person photo and the garment images to the model and returns the
// first image it produces. Garment images that cannot be downloaded are skipped.
func (g *Gemini) Render(ctx context.Context, in tryon.RenderInput) ([]byte, error) {
	person, err := g.fetcher.FetchImage(ctx, in.PersonImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person image: %w", err)
	}

	parts := []genai.Part{genai.Text(tryOnPrompt), imagePart(person)}
	for _, url := range in.GarmentImageURLs {
		data, err := g.fetcher.FetchImage(ctx, url)
		if err != nil {
			slog.Warn("skipping garment image", "url", url, "error", err)
			continue
		}
		parts = append(parts, imagePart(data))
	}
	if len(parts) == 2 {
		return nil, fmt.Errorf("no garment image could be downloaded")
	}

	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, parts...)
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return firstImage(resp)
}

func imagePart(data []byte) genai.Part {
	format := "jpeg"
	if http.DetectContentType(data) == "image/png" {
		format = "png"
	}
	return genai.ImageData(format, data)
}

func firstImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}

	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if len(p.Data) > 0 {
				return p.Data, nil
			}
		case genai.Text:
			text = append(text, string(p))
		}
	}
	if len(text) > 0 {
		return nil, fmt.Errorf("model returned text instead of an image: %s", strings.Join(text, " "))
	}
	return nil, fmt.Errorf("no image in model response")
}

func isQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota")
}
