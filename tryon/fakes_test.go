package tryon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/notify"
	"github.com/raushankrgupta/fitting-room/store"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0"), make([]byte, 32)...)
)

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	listed    []models.StoredImage
	uploadErr error
	signErr   map[string]error

	uploadStarted chan struct{}
	uploadRelease chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}, signErr: map[string]error{}}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.uploadStarted != nil {
		f.uploadStarted <- struct{}{}
		<-f.uploadRelease
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return key, nil
}

func (f *fakeStorage) List(ctx context.Context, prefix string) ([]models.StoredImage, error) {
	return f.listed, nil
}

func (f *fakeStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := f.signErr[key]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://signed.example.com/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeStorage) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type fakeRecords struct {
	mu        sync.Mutex
	tryOns    map[string]*models.TryOn
	insertErr error
}

func newFakeRecords(tryOns ...*models.TryOn) *fakeRecords {
	r := &fakeRecords{tryOns: map[string]*models.TryOn{}}
	for _, t := range tryOns {
		r.tryOns[t.ID] = t
	}
	return r
}

func (r *fakeRecords) InsertTryOn(ctx context.Context, tryOn *models.TryOn) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tryOn
	r.tryOns[tryOn.ID] = &cp
	return nil
}

func (r *fakeRecords) ListTryOns(ctx context.Context, userID string) ([]models.TryOn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TryOn
	for _, t := range r.tryOns {
		if t.UserID == userID && !t.Deleted {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRecords) SoftDeleteTryOn(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tryOns[id]
	if !ok || t.UserID != userID || t.Deleted {
		return store.ErrNotFound
	}
	t.Deleted = true
	return nil
}

func (r *fakeRecords) GetTryOn(ctx context.Context, id string) (*models.TryOn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tryOns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRecords) SetGeneratedPhoto(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tryOns[id]
	if !ok {
		return store.ErrNotFound
	}
	t.GeneratedPhoto = name
	return nil
}

func (r *fakeRecords) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tryOns)
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notify.Notification
	err     error
	ctxErrs []error
	block   bool
}

func (n *fakeNotifier) Notify(ctx context.Context, msg notify.Notification) error {
	if n.block {
		<-ctx.Done()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	if n.block {
		return ctx.Err()
	}
	return n.err
}

var errBoom = errors.New("boom")

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
