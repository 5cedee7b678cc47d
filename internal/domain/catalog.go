package domain

import (
	"encoding/json"
	"time"
)

// FeedKey identifies one of the upstream supplier gateway feeds.
type FeedKey string

const (
	FeedProducts       FeedKey = "products"
	FeedStock          FeedKey = "stock"
	FeedPriceList      FeedKey = "pricelist"
	FeedPrintPriceList FeedKey = "printpricelist"
	FeedPrintData      FeedKey = "printdata"
)

// AllFeeds returns the feeds fetched from the supplier gateway, in fetch order.
func AllFeeds() []FeedKey {
	return []FeedKey{FeedProducts, FeedStock, FeedPriceList, FeedPrintPriceList, FeedPrintData}
}

// Valid reports whether the key names a known feed.
func (k FeedKey) Valid() bool {
	switch k {
	case FeedProducts, FeedStock, FeedPriceList, FeedPrintPriceList, FeedPrintData:
		return true
	}
	return false
}

// SnapshotStatus records whether a fetch attempt succeeded.
type SnapshotStatus string

const (
	SnapshotSuccess SnapshotStatus = "success"
	SnapshotError   SnapshotStatus = "error"
)

// FeedSnapshot is one immutable fetch result for a feed. Failed fetches are
// stored too, with the error wrapped as a JSON payload, so the log records
// every attempt.
type FeedSnapshot struct {
	ID        string
	Feed      FeedKey
	FetchedAt time.Time
	Status    SnapshotStatus
	Payload   []byte
}

// SnapshotBundle is the immutable set of latest snapshots handed to the
// normalizer for a single read request. Each entry may be nil when the feed
// has never been fetched.
type SnapshotBundle struct {
	Products  *FeedSnapshot
	PriceList *FeedSnapshot
	Stock     *FeedSnapshot
	PrintData *FeedSnapshot
}

// ProductImage is a product-level image sourced from printing positions.
type ProductImage struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	URL     string `json:"url"`
}

// VariantImage is a variant-level image taken from digital assets.
type VariantImage struct {
	Subtype string `json:"subtype"`
	URL     string `json:"url"`
}

// VariantView is the storefront projection of one product variant.
type VariantView struct {
	VariantID string         `json:"variant_id"`
	SKU       string         `json:"sku"`
	Color     string         `json:"color"`
	ColorCode string         `json:"color_code"`
	GTIN      string         `json:"gtin"`
	Images    []VariantImage `json:"images"`
}

// UnifiedProductView is the denormalized per-product view computed from the
// products, pricelist and stock feeds. It is never persisted.
type UnifiedProductView struct {
	ProductName      string         `json:"product_name"`
	MasterCode       string         `json:"master_code"`
	ShortDescription string         `json:"short_description"`
	LongDescription  string         `json:"long_description"`
	Brand            string         `json:"brand"`
	Material         string         `json:"material"`
	Price            *float64       `json:"price"`
	Stock            int            `json:"stock"`
	CategoryLevel1   *string        `json:"category_level1"`
	CategoryLevel2   *string        `json:"category_level2"`
	CategoryLevel3   *string        `json:"category_level3"`
	Images           []ProductImage `json:"images"`
	Variants         []VariantView  `json:"variants"`
}

// PrintingTechnique is one entry of the feed-level technique table.
type PrintingTechnique struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Default    bool   `json:"default"`
	MaxColours string `json:"max_colours"`
}

// PrintPositionImage carries the blank and area-overlay renderings of a
// printing position.
type PrintPositionImage struct {
	Blank    string `json:"print_position_image_blank,omitempty"`
	WithArea string `json:"print_position_image_with_area,omitempty"`
}

// PrintPositionView is a printing position with its technique references
// resolved to full technique objects.
type PrintPositionView struct {
	PositionID         string               `json:"position_id"`
	PositionName       string               `json:"position_name,omitempty"`
	PrintPositionType  string               `json:"print_position_type"`
	MaxPrintSizeWidth  float64              `json:"max_print_size_width"`
	MaxPrintSizeHeight float64              `json:"max_print_size_height"`
	PrintSizeUnit      string               `json:"print_size_unit"`
	Rotation           float64              `json:"rotation"`
	Images             []PrintPositionImage `json:"images"`
	Points             json.RawMessage      `json:"points,omitempty"`
	Techniques         []PrintingTechnique  `json:"printing_techniques"`
}

// PrintDataView is the per-reference projection of the printdata feed.
type PrintDataView struct {
	MasterCode  string              `json:"master_code"`
	MasterID    string              `json:"master_id,omitempty"`
	ProductName string              `json:"product_name,omitempty"`
	Positions   []PrintPositionView `json:"printing_positions"`
}
