package domain

import "time"

// Pagination carries cursor paging inputs shared by list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// RangeQuery expresses an inclusive lower / exclusive upper bound filter.
type RangeQuery[T any] struct {
	From *T
	To   *T
}

// Role values accepted for user accounts.
const (
	RoleAdmin      = "admin"
	RoleCommercial = "commercial"
	RoleClient     = "client"
)

// ValidRole reports whether the role is one of the accepted account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCommercial, RoleClient:
		return true
	}
	return false
}

// User is an account able to sign in to the storefront or CRM.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Client is a B2B customer company that quotes are addressed to.
type Client struct {
	ID          string
	CompanyName string
	SIRET       string
	MainContact string
	Email       string
	Phone       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Favorite marks a product a user bookmarked. ProductID may reference either
// a supplier master code or a local product id; the storefront treats both as
// opaque.
type Favorite struct {
	ProductID   string
	ProductName string
	AddedAt     time.Time
}

// QuoteLine is one product line in a quote simulation.
type QuoteLine struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name,omitempty"`
	Qty           int     `json:"qty"`
	PriceEstimate float64 `json:"price_estimate"`
}

// Quote statuses.
const (
	QuoteStatusDraft = "draft"
	QuoteStatusSent  = "sent"
)

// Quote is a price simulation for a client, optionally rendered to PDF and
// emailed.
type Quote struct {
	ID        string
	ClientID  string
	Lines     []QuoteLine
	Status    string
	PDFPath   string
	CreatedAt time.Time
	SentAt    time.Time
}

// Product is a locally authored or imported catalog entry, independent of the
// raw supplier mirror.
type Product struct {
	ID             string
	Name           string
	Price          float64
	ImagePath      string
	ImageURL       string
	CategoryLevel1 string
	CategoryLevel2 string
	CategoryLevel3 string
	Description    string
	Stock          int
	Rating         float64
	ColorsJSON     string
	ImagesJSON     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
