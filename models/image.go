package models

import "time"

// StoredImage is an object in the uploads bucket. Ownership is implied by the key prefix.
type StoredImage struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	URL          string    `json:"url,omitempty"`
	LastModified time.Time `json:"last_modified"`
}
