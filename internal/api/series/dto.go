package series

import "series-catalog/internal/domain/catalog"

// ---------- responses

type ListItem struct {
	catalog.Serie
	ActoresCount int64 `json:"actoresCount"`
}

type SearchItem struct {
	ID     string  `json:"id"`
	Titulo string  `json:"titulo"`
	Anio   *int    `gorm:"column:anio" json:"año,omitempty"`
	Poster *string `json:"poster,omitempty"`
}

// ---------- requests

type MediaLookupRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}
