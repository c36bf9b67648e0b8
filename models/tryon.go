package models

import "time"

// TryOn is a try-on request as shown in the user's gallery.
// File names (base_photo, generated_photo) are relative to the owner's storage prefix.
type TryOn struct {
	ID              string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string    `bson:"user_id" json:"user_id" gorm:"index;not null"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at" gorm:"index;not null"`
	BasePhoto       string    `bson:"base_photo" json:"base_photo"`
	TopGarment      string    `bson:"top_garment" json:"top_garment"`
	BottomGarment   string    `bson:"bottom_garment" json:"bottom_garment"`
	FullBodyGarment string    `bson:"full_body_garment" json:"full_body_garment"`
	Jacket          string    `bson:"jacket" json:"jacket"`
	Shoes           string    `bson:"shoes" json:"shoes"`
	GeneratedPhoto  string    `bson:"generated_photo" json:"generated_photo"`
	Deleted         bool      `bson:"deleted" json:"deleted" gorm:"index;not null;default:false"` // Soft delete flag
}

func (TryOn) TableName() string {
	return "gallery"
}

// GarmentLinks returns the non-empty garment links in display order.
func (t *TryOn) GarmentLinks() []string {
	var links []string
	for _, l := range []string{t.TopGarment, t.BottomGarment, t.FullBodyGarment, t.Jacket, t.Shoes} {
		if l != "" {
			links = append(links, l)
		}
	}
	return links
}
