package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/raushankrgupta/fitting-room/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLStore keeps records in Postgres or SQLite through gorm.
type SQLStore struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*SQLStore, error) {
	return openSQL(postgres.Open(dsn))
}

func OpenSQLite(path string) (*SQLStore, error) {
	return openSQL(sqlite.Open(path))
}

func openSQL(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database ready", "dialect", db.Dialector.Name())
	return &SQLStore{db: db}, nil
}

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "0",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(&models.TryOn{}, &models.User{})
			},
			Rollback: func(txn *gorm.DB) error {
				return txn.Migrator().DropTable(&models.TryOn{}, &models.User{})
			},
		},
		{
			ID: "1",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(&models.User{})
			},
			Rollback: func(txn *gorm.DB) error {
				if err := txn.Migrator().DropColumn(&models.User{}, "OTPExpiresAt"); err != nil {
					return err
				}
				return txn.Migrator().DropColumn(&models.User{}, "OTPAttempts")
			},
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		slog.Info("clean database detected, running full schema initialization")
		return txn.AutoMigrate(&models.TryOn{}, &models.User{})
	})

	return migrator
}

func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) InsertTryOn(ctx context.Context, tryOn *models.TryOn) error {
	if err := s.db.WithContext(ctx).Create(tryOn).Error; err != nil {
		return fmt.Errorf("failed to insert try-on: %w", err)
	}
	return nil
}

func (s *SQLStore) ListTryOns(ctx context.Context, userID string) ([]models.TryOn, error) {
	var tryOns []models.TryOn
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("created_at DESC").
		Find(&tryOns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery: %w", err)
	}
	return tryOns, nil
}

func (s *SQLStore) SoftDeleteTryOn(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Model(&models.TryOn{}).
		Where("id = ? AND user_id = ? AND deleted = ?", id, userID, false).
		Update("deleted", true)
	if res.Error != nil {
		return fmt.Errorf("failed to delete try-on %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetTryOn(ctx context.Context, id string) (*models.TryOn, error) {
	var tryOn models.TryOn
	err := s.db.WithContext(ctx).First(&tryOn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get try-on %s: %w", id, err)
	}
	return &tryOn, nil
}

func (s *SQLStore) SetGeneratedPhoto(ctx context.Context, id, name string) error {
	res := s.db.WithContext(ctx).Model(&models.TryOn{}).Where("id = ?", id).Update("generated_photo", name)
	if res.Error != nil {
		return fmt.Errorf("failed to update try-on %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Select("*").Omit("id", "created_at").Updates(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// gorm only translates duplicate key errors when TranslateError is enabled, and the sqlite
// driver reports them as plain constraint failures.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
