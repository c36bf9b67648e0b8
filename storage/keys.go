package storage

import (
	"fmt"
	"path"
	"strings"
)

const (
	BaseModelDir       = "base_model"
	GeneratedPhotosDir = "generated_photos"
)

// BaseModelPrefix is the listing prefix for a user's uploaded base photos.
func BaseModelPrefix(userID string) string {
	return fmt.Sprintf("%s/%s/", userID, BaseModelDir)
}

func BaseModelKey(userID, name string) string {
	return BaseModelPrefix(userID) + name
}

func GeneratedPhotoKey(userID, name string) string {
	return fmt.Sprintf("%s/%s/%s", userID, GeneratedPhotosDir, name)
}

// ValidName reports whether name can be used as the last segment of an object key.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// NameFromKey returns the last segment of an object key.
func NameFromKey(key string) string {
	return path.Base(key)
}
