package models

import "time"

// Flipbook is the top-level entity representing one converted PDF.
// ID and ShareToken are full UUID strings and are unique across all flipbooks.
type Flipbook struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	PDFPath    string         `json:"-"`
	Style      map[string]any `json:"style"`
	ShareToken string         `json:"share_token"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Page is one rendered page image plus its overlay widgets.
// (FlipbookID, PageNum) is unique; PageNum is 1-based.
type Page struct {
	ID         string   `json:"id"`
	FlipbookID string   `json:"flipbook_id"`
	PageNum    int      `json:"page_num"`
	ImagePath  string   `json:"image_path"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Widgets    []Widget `json:"widgets,omitempty"`
}

// FlipbookSummary is the shape returned by upload, document read and listing.
type FlipbookSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pages     int       `json:"pages"`
	Thumbnail string    `json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EditorData is the full page+widget graph consumed by the editor and reader.
type EditorData struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Style     map[string]any `json:"style"`
	PageCount int            `json:"page_count"`
	Pages     []Page         `json:"pages"`
}
