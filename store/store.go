package store

import (
	"context"
	"errors"

	"github.com/raushankrgupta/fitting-room/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// TryOnStore persists try-on requests.
type TryOnStore interface {
	InsertTryOn(ctx context.Context, tryOn *models.TryOn) error
	// ListTryOns returns the user's records with deleted=false, newest first.
	ListTryOns(ctx context.Context, userID string) ([]models.TryOn, error)
	// SoftDeleteTryOn marks a live record owned by userID as deleted.
	// It returns ErrNotFound when no such record exists.
	SoftDeleteTryOn(ctx context.Context, userID, id string) error
	GetTryOn(ctx context.Context, id string) (*models.TryOn, error)
	SetGeneratedPhoto(ctx context.Context, id, name string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type Store interface {
	TryOnStore
	UserStore
	Close(ctx context.Context) error
}
