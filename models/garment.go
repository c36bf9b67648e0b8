package models

// GarmentPreview is what could be read from a garment link's product page.
type GarmentPreview struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
