package tryon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/notify"
	"github.com/raushankrgupta/fitting-room/storage"
	"github.com/raushankrgupta/fitting-room/store"
)

const (
	MaxBasePhotos = 10

	StatusProcessing = "processing"
	StatusReady      = "ready"
)

type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]models.StoredImage, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type RecordStore interface {
	InsertTryOn(ctx context.Context, tryOn *models.TryOn) error
	ListTryOns(ctx context.Context, userID string) ([]models.TryOn, error)
	SoftDeleteTryOn(ctx context.Context, userID, id string) error
	GetTryOn(ctx context.Context, id string) (*models.TryOn, error)
	SetGeneratedPhoto(ctx context.Context, id, name string) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

type Config struct {
	GalleryURLTTL   time.Duration
	BasePhotoURLTTL time.Duration
	// NotifyTimeout bounds the operator notification after a record is stored.
	NotifyTimeout time.Duration
}

// Submission is one completed try-on form.
type Submission struct {
	UserID   string
	Image    ImageSource
	Garments GarmentSelection
}

// Receipt is returned for an accepted submission. Notified is false when the
// operator could not be told about it; the record is stored either way.
type Receipt struct {
	TryOn    *models.TryOn `json:"tryon"`
	Notified bool          `json:"notified"`
}

type GalleryItem struct {
	models.TryOn
	ImageURL string `json:"image_url"`
	Status   string `json:"status"`
}

type Service struct {
	storage  ObjectStorage
	records  RecordStore
	notifier Notifier
	cfg      Config

	submitting *inflight
	now        func() time.Time
	newID      func() string
}

func (c Config) withDefaults() Config {
	if c.GalleryURLTTL <= 0 {
		c.GalleryURLTTL = time.Hour
	}
	if c.BasePhotoURLTTL <= 0 {
		c.BasePhotoURLTTL = time.Minute
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 10 * time.Second
	}
	return c
}

func NewService(storage ObjectStorage, records RecordStore, notifier Notifier, cfg Config) *Service {
	return &Service{
		storage:    storage,
		records:    records,
		notifier:   notifier,
		cfg:        cfg.withDefaults(),
		submitting: newInflight(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Submit validates the submission, stores an uploaded base photo, persists the request and
// notifies the operator. Only one submission per user runs at a time.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	if !s.submitting.acquire(sub.UserID) {
		return nil, ErrSubmissionInProgress
	}
	defer s.submitting.release(sub.UserID)

	image, contentType, verr := s.validate(sub)
	if verr != nil {
		return nil, verr
	}

	var basePhoto string
	switch src := sub.Image.(type) {
	case PriorImage:
		basePhoto = src.Name
	case UploadedImage:
		basePhoto = s.newID()
		if _, err := s.storage.Upload(ctx, storage.BaseModelKey(sub.UserID, basePhoto), image, contentType); err != nil {
			return nil, &UploadError{Err: err}
		}
	}

	record := &models.TryOn{
		ID:        s.newID(),
		UserID:    sub.UserID,
		CreatedAt: s.now().UTC(),
		BasePhoto: basePhoto,
	}
	sub.Garments.ApplyTo(record)

	if err := s.records.InsertTryOn(ctx, record); err != nil {
		return nil, &PersistError{Err: err}
	}

	receipt := &Receipt{TryOn: record, Notified: true}

	// the record is stored, so a client hanging up must not cancel the notification
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	err := s.notifier.Notify(notifyCtx, notify.Notification{FormID: record.ID, Timestamp: record.CreatedAt})
	if err != nil {
		slog.Error("failed to notify operator", "tryon_id", record.ID, "error", err)
		receipt.Notified = false
	}
	return receipt, nil
}

// validate checks the whole form without side effects. For an upload it returns the
// reader to store and its detected content type.
func (s *Service) validate(sub Submission) (io.Reader, string, error) {
	verr := &ValidationError{}

	var image io.Reader
	var contentType string
	if msg := sourceProblem(sub.Image); msg != "" {
		verr.add("image", msg)
	} else if src, ok := sub.Image.(UploadedImage); ok {
		r, ct, err := sniffImage(src.Body)
		if err != nil {
			verr.add("image", err.Error())
		} else {
			image, contentType = r, ct
		}
	}

	var gerr *ValidationError
	if errors.As(sub.Garments.Validate(), &gerr) {
		verr.merge(gerr)
	}

	if !verr.empty() {
		return nil, "", verr
	}
	return image, contentType, nil
}

// Gallery lists the user's live requests, newest first. A photo that is missing or cannot
// be signed leaves that item's image_url empty.
func (s *Service) Gallery(ctx context.Context, userID string) ([]GalleryItem, error) {
	tryOns, err := s.records.ListTryOns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}

	items := make([]GalleryItem, 0, len(tryOns))
	for _, t := range tryOns {
		item := GalleryItem{TryOn: t, Status: StatusProcessing}
		if t.GeneratedPhoto != "" {
			item.Status = StatusReady
			url, err := s.storage.SignedURL(ctx, storage.GeneratedPhotoKey(userID, t.GeneratedPhoto), s.cfg.GalleryURLTTL)
			if err != nil {
				slog.Warn("failed to sign gallery image", "tryon_id", t.ID, "error", err)
			} else {
				item.ImageURL = url
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// DeleteFromGallery soft-deletes a live request owned by userID.
func (s *Service) DeleteFromGallery(ctx context.Context, userID, id string) error {
	err := s.records.SoftDeleteTryOn(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete try-on: %w", err)
	}
	return nil
}

// BasePhotos lists the user's prior uploads, newest first, each with a short-lived URL.
// Photos that cannot be signed are left out.
func (s *Service) BasePhotos(ctx context.Context, userID string) ([]models.StoredImage, error) {
	objects, err := s.storage.List(ctx, storage.BaseModelPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list base photos: %w", err)
	}

	photos := make([]models.StoredImage, 0, len(objects))
	for _, obj := range objects {
		url, err := s.storage.SignedURL(ctx, obj.Key, s.cfg.BasePhotoURLTTL)
		if err != nil {
			slog.Warn("failed to sign base photo", "key", obj.Key, "error", err)
			continue
		}
		obj.URL = url
		photos = append(photos, obj)
	}

	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].LastModified.After(photos[j].LastModified)
	})
	return photos, nil
}

// UploadBasePhotos stores up to MaxBasePhotos PNG or JPEG files under fresh names.
// Every file is checked before the first upload; the first failed upload aborts the rest.
func (s *Service) UploadBasePhotos(ctx context.Context, userID string, files []UploadedImage) ([]models.StoredImage, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"images": msgUploadImage}}
	}
	if len(files) > MaxBasePhotos {
		return nil, &ValidationError{Fields: map[string]string{
			"images": fmt.Sprintf("You can upload at most %d images at a time", MaxBasePhotos),
		}}
	}

	type checked struct {
		body        io.Reader
		contentType string
	}
	var ready []checked
	verr := &ValidationError{}
	for i, f := range files {
		if f.Body == nil {
			verr.add(fmt.Sprintf("images[%d]", i), msgUploadImage)
			continue
		}
		r, ct, err := sniffImage(f.Body)
		if err != nil {
			verr.add(fmt.Sprintf("images[%d]", i), err.Error())
			continue
		}
		ready = append(ready, checked{body: r, contentType: ct})
	}
	if !verr.empty() {
		return nil, verr
	}

	stored := make([]models.StoredImage, 0, len(ready))
	for _, c := range ready {
		name := s.newID()
		key := storage.BaseModelKey(userID, name)
		if _, err := s.storage.Upload(ctx, key, c.body, c.contentType); err != nil {
			return nil, &UploadError{Err: err}
		}
		stored = append(stored, models.StoredImage{Name: name, Key: key, LastModified: s.now().UTC()})
	}
	return stored, nil
}
