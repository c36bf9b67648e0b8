package tryon

import (
	"bytes"
	"context"
	"testing"

	"github.com/raushankrgupta/fitting-room/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	got    RenderInput
	output []byte
	err    error
}

func (r *fakeRenderer) Render(ctx context.Context, in RenderInput) ([]byte, error) {
	r.got = in
	return r.output, r.err
}

type fakeResolver map[string]string

func (r fakeResolver) Preview(ctx context.Context, link string) (*models.GarmentPreview, error) {
	img, ok := r[link]
	if !ok {
		return nil, errBoom
	}
	return &models.GarmentPreview{URL: link, FinalURL: link, ImageURL: img}, nil
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, errBoom
	}
	return data, nil
}

func newFulfiller(renderer Renderer, tryOns ...*models.TryOn) (*Fulfiller, *fakeStorage, *fakeRecords) {
	storage := newFakeStorage()
	records := newFakeRecords(tryOns...)
	resolver := fakeResolver{"https://shop.example.com/shirt": "https://cdn.example.com/shirt.jpg"}
	fetcher := fakeFetcher{"https://cdn.example.com/result.jpg": jpegBytes}

	f := NewFulfiller(storage, records, renderer, resolver, fetcher, Config{})
	f.newID = sequentialIDs()
	return f, storage, records
}

func TestAttachResult(t *testing.T) {
	rec := &models.TryOn{ID: "t1", UserID: "u1", BasePhoto: "base"}
	f, storage, _ := newFulfiller(nil, rec)

	got, err := f.AttachResult(context.Background(), "t1", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "id-1.png", got.GeneratedPhoto)
	assert.Equal(t, "id-1.png", rec.GeneratedPhoto)
	assert.Equal(t, []string{"u1/generated_photos/id-1.png"}, storage.keys())
}

func TestAttachResultErrors(t *testing.T) {
	deleted := &models.TryOn{ID: "gone", UserID: "u1", Deleted: true}
	f, storage, _ := newFulfiller(nil, &models.TryOn{ID: "t1", UserID: "u1"}, deleted)
	ctx := context.Background()

	_, err := f.AttachResult(ctx, "missing", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.AttachResult(ctx, "gone", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.AttachResult(ctx, "t1", bytes.NewReader([]byte("<html></html>")))
	assert.Contains(t, fieldErrors(t, err), "image")
	assert.Empty(t, storage.keys())
}

func TestAttachResultFromURL(t *testing.T) {
	f, storage, _ := newFulfiller(nil, &models.TryOn{ID: "t1", UserID: "u1"})
	ctx := context.Background()

	got, err := f.AttachResultFromURL(ctx, "t1", "https://cdn.example.com/result.jpg")
	require.NoError(t, err)
	assert.Equal(t, "id-1.jpg", got.GeneratedPhoto)
	assert.Equal(t, []string{"u1/generated_photos/id-1.jpg"}, storage.keys())

	_, err = f.AttachResultFromURL(ctx, "t1", "not a url")
	assert.Contains(t, fieldErrors(t, err), "result_url")

	_, err = f.AttachResultFromURL(ctx, "t1", "https://cdn.example.com/unreachable.jpg")
	var uerr *UploadError
	assert.ErrorAs(t, err, &uerr)
}

func TestRender(t *testing.T) {
	rec := &models.TryOn{
		ID:            "t1",
		UserID:        "u1",
		BasePhoto:     "base",
		TopGarment:    "https://shop.example.com/shirt",
		BottomGarment: "https://shop.example.com/unknown",
	}
	renderer := &fakeRenderer{output: pngBytes}
	f, _, _ := newFulfiller(renderer, rec)

	got, err := f.Render(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "id-1.png", got.GeneratedPhoto)

	assert.Equal(t, "https://signed.example.com/u1/base_model/base?ttl=3600", renderer.got.PersonImageURL)
	assert.Equal(t, []string{
		"https://cdn.example.com/shirt.jpg",
		"https://shop.example.com/unknown",
	}, renderer.got.GarmentImageURLs)
}

func TestRenderWithoutRenderer(t *testing.T) {
	f, _, _ := newFulfiller(nil, &models.TryOn{ID: "t1", UserID: "u1"})
	_, err := f.Render(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrRendererUnavailable)
}

func TestRenderFailureLeavesRecord(t *testing.T) {
	rec := &models.TryOn{ID: "t1", UserID: "u1", BasePhoto: "base", Shoes: "https://shop.example.com/shirt"}
	f, storage, _ := newFulfiller(&fakeRenderer{err: errBoom}, rec)

	_, err := f.Render(context.Background(), "t1")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, rec.GeneratedPhoto)
	assert.Empty(t, storage.keys())
}
