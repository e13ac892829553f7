package models

import "time"

// Product is a catalog item. Available=false means it has been bought.
type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	Available   bool      `json:"available"`
	OwnerID     *int      `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CatalogSummary counts products on each side of the available flag.
type CatalogSummary struct {
	Available int       `json:"available"`
	Owned     int       `json:"owned"`
	Total     int       `json:"total"`
	AsOf      time.Time `json:"as_of"`
}
