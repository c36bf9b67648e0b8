package tryon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/storage"
	"github.com/raushankrgupta/fitting-room/store"
)

var ErrRendererUnavailable = errors.New("no renderer configured")

// RenderInput is everything a renderer needs to compose a try-on photo.
type RenderInput struct {
	PersonImageURL   string
	GarmentImageURLs []string
}

type Renderer interface {
	Render(ctx context.Context, in RenderInput) ([]byte, error)
}

type GarmentResolver interface {
	Preview(ctx context.Context, link string) (*models.GarmentPreview, error)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Fulfiller completes requests on the operator side by attaching a generated photo.
type Fulfiller struct {
	storage  ObjectStorage
	records  RecordStore
	renderer Renderer
	resolver GarmentResolver
	fetcher  ImageFetcher
	cfg      Config

	newID func() string
}

// NewFulfiller builds a Fulfiller. renderer and resolver may be nil, in which case Render
// is unavailable or uses the garment links directly.
func NewFulfiller(storage ObjectStorage, records RecordStore, renderer Renderer, resolver GarmentResolver, fetcher ImageFetcher, cfg Config) *Fulfiller {
	return &Fulfiller{
		storage:  storage,
		records:  records,
		renderer: renderer,
		resolver: resolver,
		fetcher:  fetcher,
		cfg:      cfg.withDefaults(),
		newID:    uuid.NewString,
	}
}

func (f *Fulfiller) load(ctx context.Context, id string) (*models.TryOn, error) {
	rec, err := f.records.GetTryOn(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.Deleted) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load try-on %s: %w", id, err)
	}
	return rec, nil
}

// AttachResult stores img as the generated photo of request id.
func (f *Fulfiller) AttachResult(ctx context.Context, id string, img io.Reader) (*models.TryOn, error) {
	rec, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}

	body, contentType, err := sniffImage(img)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"image": err.Error()}}
	}

	name := f.newID() + imageExtensions[contentType]
	if _, err := f.storage.Upload(ctx, storage.GeneratedPhotoKey(rec.UserID, name), body, contentType); err != nil {
		return nil, &UploadError{Err: err}
	}

	if err := f.records.SetGeneratedPhoto(ctx, rec.ID, name); err != nil {
		return nil, &PersistError{Err: err}
	}
	rec.GeneratedPhoto = name

	slog.Info("attached generated photo", "tryon_id", rec.ID, "name", name)
	return rec, nil
}

// AttachResultFromURL downloads the image at resultURL and attaches it.
func (f *Fulfiller) AttachResultFromURL(ctx context.Context, id, resultURL string) (*models.TryOn, error) {
	if !IsValidURL(resultURL) {
		return nil, &ValidationError{Fields: map[string]string{"result_url": msgInvalidURL}}
	}
	if _, err := f.load(ctx, id); err != nil {
		return nil, err
	}

	data, err := f.fetcher.FetchImage(ctx, resultURL)
	if err != nil {
		return nil, &UploadError{Err: fmt.Errorf("failed to download result image: %w", err)}
	}
	return f.AttachResult(ctx, id, bytes.NewReader(data))
}

// Render asks the renderer for a photo of the request's base photo wearing its garments
// and attaches the output.
func (f *Fulfiller) Render(ctx context.Context, id string) (*models.TryOn, error) {
	if f.renderer == nil {
		return nil, ErrRendererUnavailable
	}

	rec, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}

	personURL, err := f.storage.SignedURL(ctx, storage.BaseModelKey(rec.UserID, rec.BasePhoto), f.cfg.GalleryURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign base photo: %w", err)
	}

	in := RenderInput{PersonImageURL: personURL}
	for _, link := range rec.GarmentLinks() {
		in.GarmentImageURLs = append(in.GarmentImageURLs, f.garmentImage(ctx, link))
	}

	data, err := f.renderer.Render(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to render try-on %s: %w", rec.ID, err)
	}
	return f.AttachResult(ctx, rec.ID, bytes.NewReader(data))
}

// garmentImage resolves a product page link to its product image, falling back to the link.
func (f *Fulfiller) garmentImage(ctx context.Context, link string) string {
	if f.resolver == nil {
		return link
	}
	preview, err := f.resolver.Preview(ctx, link)
	if err != nil {
		slog.Warn("failed to preview garment", "url", link, "error", err)
		return link
	}
	if strings.TrimSpace(preview.ImageURL) == "" {
		return link
	}
	return preview.ImageURL
}
