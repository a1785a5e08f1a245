package domain

import (
	"strings"
	"time"
)

// DefaultRedirectPrefix is prepended to every short code to build its short URL.
const DefaultRedirectPrefix = "http://shorturl.co/go/"

// Mapping links an owner's original URL to a short code
type Mapping struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	VisitCount  int64     `json:"visit_count"`
}

// ShortURLFor derives the short URL of code under prefix.
func ShortURLFor(prefix, code string) string {
	return prefix + code
}

// MappingForm is the caller input for creating or editing a mapping.
// Field names double as the keys of validation errors.
type MappingForm struct {
	URL       string `json:"original_url" validate:"required,utf8,url,max=2048"`
	ShortCode string `json:"short_code" validate:"required,max=64,shortcode"`
}

// Normalize trims surrounding whitespace from both fields.
func (f MappingForm) Normalize() MappingForm {
	return MappingForm{
		URL:       strings.TrimSpace(f.URL),
		ShortCode: strings.TrimSpace(f.ShortCode),
	}
}

// ListedMapping is a listing row. Position is 1-based and only meaningful
// within the listing that produced it.
type ListedMapping struct {
	Position    int       `json:"display_position"`
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortURL    string    `json:"short_url"`
	CreatedAt   time.Time `json:"created_at"`
	VisitCount  int64     `json:"visit_count"`
}
