package models

import "time"

// WardrobeItem is a single garment belonging to an outfit. Items carry
// the display metadata the advisor surfaces in reuse warnings.
type WardrobeItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Outfit is a named, ordered collection of wardrobe items. The
// scheduling core reads outfits but never mutates them.
type Outfit struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	Favorite  bool           `json:"favorite"`
	Items     []WardrobeItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}
