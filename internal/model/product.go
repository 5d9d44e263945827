package model

import "time"

// Product represents a vendor product tracked in the catalogue.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	VendorID  string    `json:"vendorId" db:"vendor_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PriceRecord is one entry of a product's append-only price history.
// VendorDate is the period-end date the price is asserted for, not the insert time.
type PriceRecord struct {
	ID               int64     `json:"-" db:"id"`
	ProductID        int64     `json:"-" db:"product_id"`
	Price            int64     `json:"price" db:"price"`
	PercentageChange float64   `json:"percentageChange" db:"percentage_change"`
	VendorDate       time.Time `json:"vendorDate" db:"vendor_date"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// CatalogEntry is a product together with its current price, if any.
type CatalogEntry struct {
	Product
	CurrentPrice *PriceRecord `json:"currentPrice,omitempty"`
}

// ProductHistory is a product with its full price history, newest first.
type ProductHistory struct {
	Product
	Prices []PriceRecord `json:"prices"`
}
