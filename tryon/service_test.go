package tryon

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/raushankrgupta/fitting-room/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type serviceFixture struct {
	storage  *fakeStorage
	records  *fakeRecords
	notifier *fakeNotifier
	service  *Service
}

func newFixture(tryOns ...*models.TryOn) *serviceFixture {
	f := &serviceFixture{
		storage:  newFakeStorage(),
		records:  newFakeRecords(tryOns...),
		notifier: &fakeNotifier{},
	}
	f.service = NewService(f.storage, f.records, f.notifier, Config{})
	f.service.now = func() time.Time { return fixedNow }
	f.service.newID = sequentialIDs()
	return f
}

func uploadSubmission(user string) Submission {
	return Submission{
		UserID:   user,
		Image:    UploadedImage{Body: bytes.NewReader(pngBytes), Filename: "me.png"},
		Garments: GarmentSelection{Outfit: Separates{Top: "https://example.com/shirt"}},
	}
}

func TestSubmitUpload(t *testing.T) {
	f := newFixture()

	receipt, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	require.NoError(t, err)
	assert.True(t, receipt.Notified)

	rec := receipt.TryOn
	assert.Equal(t, "id-2", rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "id-1", rec.BasePhoto)
	assert.Equal(t, "https://example.com/shirt", rec.TopGarment)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.False(t, rec.Deleted)

	assert.Equal(t, []string{"u1/base_model/id-1"}, f.storage.keys())
	assert.Equal(t, "image/png", f.storage.types["u1/base_model/id-1"])
	assert.Equal(t, pngBytes, f.storage.objects["u1/base_model/id-1"])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, rec.ID, f.notifier.sent[0].FormID)
	assert.Equal(t, fixedNow, f.notifier.sent[0].Timestamp)
}

func TestSubmitPriorImageSkipsUpload(t *testing.T) {
	f := newFixture()

	receipt, err := f.service.Submit(context.Background(), Submission{
		UserID:   "u1",
		Image:    PriorImage{Name: "earlier"},
		Garments: GarmentSelection{Outfit: FullBodyOutfit{Garment: "https://example.com/dress"}, Shoes: "https://example.com/shoes"},
	})
	require.NoError(t, err)

	assert.Equal(t, "earlier", receipt.TryOn.BasePhoto)
	assert.Equal(t, "https://example.com/dress", receipt.TryOn.FullBodyGarment)
	assert.Equal(t, "https://example.com/shoes", receipt.TryOn.Shoes)
	assert.Empty(t, receipt.TryOn.TopGarment)
	assert.Empty(t, f.storage.keys())
}

func TestSubmitRepeatedCreatesNewRecords(t *testing.T) {
	f := newFixture()
	sub := Submission{
		UserID:   "u1",
		Image:    PriorImage{Name: "earlier"},
		Garments: GarmentSelection{Outfit: Separates{Top: "https://example.com/shirt"}},
	}

	first, err := f.service.Submit(context.Background(), sub)
	require.NoError(t, err)
	second, err := f.service.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.NotEqual(t, first.TryOn.ID, second.TryOn.ID)
	assert.Equal(t, 2, f.records.count())
}

func TestSubmitValidationHasNoSideEffects(t *testing.T) {
	f := newFixture()

	_, err := f.service.Submit(context.Background(), Submission{
		UserID:   "u1",
		Image:    UploadedImage{},
		Garments: GarmentSelection{Outfit: Separates{Top: "not a url"}},
	})
	assert.Equal(t, map[string]string{
		"image":    msgUploadImage,
		"topLink":  msgInvalidURL,
		"garments": msgNeedGarments,
	}, fieldErrors(t, err))

	_, err = f.service.Submit(context.Background(), Submission{
		UserID:   "u1",
		Image:    PriorImage{},
		Garments: GarmentSelection{Outfit: Separates{Top: "https://example.com/shirt"}},
	})
	assert.Equal(t, map[string]string{"image": msgSelectImage}, fieldErrors(t, err))

	assert.Empty(t, f.storage.keys())
	assert.Zero(t, f.records.count())
	assert.Empty(t, f.notifier.sent)
}

func TestSubmitRejectsNonImageUpload(t *testing.T) {
	f := newFixture()
	sub := uploadSubmission("u1")
	sub.Image = UploadedImage{Body: bytes.NewReader([]byte("just some text")), Filename: "notes.png"}

	_, err := f.service.Submit(context.Background(), sub)
	assert.Contains(t, fieldErrors(t, err)["image"], "only PNG and JPEG")
	assert.Empty(t, f.storage.keys())
}

func TestSubmitUploadFailureCreatesNoRecord(t *testing.T) {
	f := newFixture()
	f.storage.uploadErr = errBoom

	_, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, f.records.count())
	assert.Empty(t, f.notifier.sent)
}

func TestSubmitPersistFailureSkipsNotify(t *testing.T) {
	f := newFixture()
	f.records.insertErr = errBoom

	_, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, f.notifier.sent)
}

func TestSubmitNotifyFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.notifier.err = errBoom

	receipt, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	require.NoError(t, err)
	assert.False(t, receipt.Notified)
	assert.Equal(t, 1, f.records.count())
}

func TestSubmitNotifiesAfterClientGoesAway(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receipt, err := f.service.Submit(ctx, uploadSubmission("u1"))
	require.NoError(t, err)
	assert.True(t, receipt.Notified)
	require.Len(t, f.notifier.ctxErrs, 1)
	assert.NoError(t, f.notifier.ctxErrs[0])
}

func TestSubmitNotifyIsBounded(t *testing.T) {
	f := newFixture()
	f.notifier.block = true
	f.service.cfg.NotifyTimeout = 50 * time.Millisecond

	start := time.Now()
	receipt, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	require.NoError(t, err)
	assert.False(t, receipt.Notified)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, f.records.count())

	// the in-flight guard is released once the notifier gives up
	f.notifier.block = false
	_, err = f.service.Submit(context.Background(), uploadSubmission("u1"))
	assert.NoError(t, err)
}

func TestSubmitOneInFlightPerUser(t *testing.T) {
	f := newFixture()
	f.storage.uploadStarted = make(chan struct{})
	f.storage.uploadRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
		done <- err
	}()
	<-f.storage.uploadStarted

	_, err := f.service.Submit(context.Background(), uploadSubmission("u1"))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	// other users are not blocked
	_, err = f.service.Submit(context.Background(), Submission{
		UserID:   "u2",
		Image:    PriorImage{Name: "earlier"},
		Garments: GarmentSelection{Outfit: Separates{Top: "https://example.com/shirt"}},
	})
	assert.NoError(t, err)

	close(f.storage.uploadRelease)
	require.NoError(t, <-done)

	f.storage.uploadStarted = nil
	_, err = f.service.Submit(context.Background(), uploadSubmission("u1"))
	assert.NoError(t, err)
}

func TestGallery(t *testing.T) {
	ready := &models.TryOn{ID: "a", UserID: "u1", CreatedAt: fixedNow, GeneratedPhoto: "a.png"}
	unsignable := &models.TryOn{ID: "b", UserID: "u1", CreatedAt: fixedNow.Add(-time.Hour), GeneratedPhoto: "b.png"}
	pending := &models.TryOn{ID: "c", UserID: "u1", CreatedAt: fixedNow.Add(time.Hour)}
	deleted := &models.TryOn{ID: "d", UserID: "u1", CreatedAt: fixedNow, GeneratedPhoto: "d.png", Deleted: true}
	foreign := &models.TryOn{ID: "e", UserID: "u2", CreatedAt: fixedNow, GeneratedPhoto: "e.png"}

	f := newFixture(ready, unsignable, pending, deleted, foreign)
	f.storage.signErr["u1/generated_photos/b.png"] = errBoom

	items, err := f.service.Gallery(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, StatusProcessing, items[0].Status)
	assert.Empty(t, items[0].ImageURL)

	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, StatusReady, items[1].Status)
	assert.Equal(t, "https://signed.example.com/u1/generated_photos/a.png?ttl=3600", items[1].ImageURL)

	assert.Equal(t, "b", items[2].ID)
	assert.Equal(t, StatusReady, items[2].Status)
	assert.Empty(t, items[2].ImageURL)
}

func TestGalleryEmpty(t *testing.T) {
	items, err := newFixture().service.Gallery(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDeleteFromGallery(t *testing.T) {
	mine := &models.TryOn{ID: "a", UserID: "u1", CreatedAt: fixedNow}
	f := newFixture(mine)
	ctx := context.Background()

	assert.ErrorIs(t, f.service.DeleteFromGallery(ctx, "u2", "a"), ErrNotFound)
	assert.False(t, mine.Deleted)

	require.NoError(t, f.service.DeleteFromGallery(ctx, "u1", "a"))
	assert.True(t, mine.Deleted)

	assert.ErrorIs(t, f.service.DeleteFromGallery(ctx, "u1", "a"), ErrNotFound)
	assert.ErrorIs(t, f.service.DeleteFromGallery(ctx, "u1", "missing"), ErrNotFound)
}

func TestBasePhotos(t *testing.T) {
	f := newFixture()
	f.storage.listed = []models.StoredImage{
		{Name: "old", Key: "u1/base_model/old", LastModified: fixedNow.Add(-time.Hour)},
		{Name: "broken", Key: "u1/base_model/broken", LastModified: fixedNow},
		{Name: "new", Key: "u1/base_model/new", LastModified: fixedNow.Add(time.Hour)},
	}
	f.storage.signErr["u1/base_model/broken"] = errBoom

	photos, err := f.service.BasePhotos(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "new", photos[0].Name)
	assert.Equal(t, "https://signed.example.com/u1/base_model/new?ttl=60", photos[0].URL)
	assert.Equal(t, "old", photos[1].Name)
}

func TestUploadBasePhotos(t *testing.T) {
	f := newFixture()

	stored, err := f.service.UploadBasePhotos(context.Background(), "u1", []UploadedImage{
		{Body: bytes.NewReader(pngBytes)},
		{Body: bytes.NewReader(jpegBytes)},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{"u1/base_model/id-1", "u1/base_model/id-2"}, f.storage.keys())
	assert.Equal(t, "image/jpeg", f.storage.types["u1/base_model/id-2"])
}

func TestUploadBasePhotosLimits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.UploadBasePhotos(ctx, "u1", nil)
	assert.Contains(t, fieldErrors(t, err), "images")

	var tooMany []UploadedImage
	for i := 0; i < MaxBasePhotos+1; i++ {
		tooMany = append(tooMany, UploadedImage{Body: bytes.NewReader(pngBytes)})
	}
	_, err = f.service.UploadBasePhotos(ctx, "u1", tooMany)
	assert.Contains(t, fieldErrors(t, err), "images")

	_, err = f.service.UploadBasePhotos(ctx, "u1", []UploadedImage{
		{Body: bytes.NewReader(pngBytes)},
		{Body: bytes.NewReader([]byte("GIF89a not allowed"))},
	})
	assert.Contains(t, fieldErrors(t, err), "images[1]")
	assert.Empty(t, f.storage.keys())

	f.storage.uploadErr = errBoom
	_, err = f.service.UploadBasePhotos(ctx, "u1", []UploadedImage{{Body: bytes.NewReader(pngBytes)}})
	var uerr *UploadError
	assert.ErrorAs(t, err, &uerr)
}
