package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/uniqmaker/api/internal/domain"
)

// The gateway serves every feed in one of two shapes: a bare JSON array, or
// an object wrapping the array under a feed-specific key. unwrapItems is the
// single place that sniffs the shape; everything downstream works on the
// item list.
func unwrapItems(feed domain.FeedKey, raw []byte, key string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &FormatError{Feed: feed, Err: errEmptyPayload}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &FormatError{Feed: feed, Err: err}
		}
		return items, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, &FormatError{Feed: feed, Err: err}
		}
		inner, ok := wrapper[key]
		if !ok {
			// Wrapped document without the expected key carries no items.
			return nil, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, &FormatError{Feed: feed, Err: err}
		}
		return items, nil
	default:
		return nil, &FormatError{Feed: feed, Err: errUnexpectedShape}
	}
}

// unwrapField extracts a top-level field from an object-wrapped payload,
// returning nil when the payload is a bare array or the field is absent.
func unwrapField(feed domain.FeedKey, raw []byte, key string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, &FormatError{Feed: feed, Err: err}
	}
	return wrapper[key], nil
}

var (
	errEmptyPayload    = jsonError("empty payload")
	errUnexpectedShape = jsonError("payload is neither an array nor an object")
)

type jsonError string

func (e jsonError) Error() string { return string(e) }

// Upstream record shapes. Field names mirror the gateway JSON, including the
// url_highress spelling the gateway actually uses.

type rawAsset struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype"`
	URL        string `json:"url"`
	URLHighRes string `json:"url_highress"`
}

type rawVariant struct {
	VariantID        string     `json:"variant_id"`
	SKU              string     `json:"sku"`
	ColorDescription string     `json:"color_description"`
	ColorCode        string     `json:"color_code"`
	GTIN             string     `json:"gtin"`
	CategoryLevel1   *string    `json:"category_level1"`
	CategoryLevel2   *string    `json:"category_level2"`
	CategoryLevel3   *string    `json:"category_level3"`
	DigitalAssets    []rawAsset `json:"digital_assets"`
}

// Image URL fields are pointers: the transform must distinguish an absent
// field from an empty one, because presence alone decides whether an output
// entry is emitted.
type rawPositionImage struct {
	Blank    *string `json:"print_position_image_blank"`
	WithArea *string `json:"print_position_image_with_area"`
	Subtype  string  `json:"subtype"`
}

type rawPosition struct {
	PositionID         string             `json:"position_id"`
	PositionName       string             `json:"position_name"`
	PrintPositionType  string             `json:"print_position_type"`
	MaxPrintSizeWidth  float64            `json:"max_print_size_width"`
	MaxPrintSizeHeight float64            `json:"max_print_size_height"`
	PrintSizeUnit      string             `json:"print_size_unit"`
	Rotation           float64            `json:"rotation"`
	Images             []rawPositionImage `json:"images"`
	Points             json.RawMessage    `json:"points"`
	PrintingTechniques []rawTechniqueRef  `json:"printing_techniques"`
}

// rawTechniqueRef accepts both reference encodings seen in the feed: a bare
// id string, or an object carrying an id field.
type rawTechniqueRef struct {
	ID string `json:"id"`
}

func (r *rawTechniqueRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.ID)
	}
	type alias rawTechniqueRef
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	r.ID = a.ID
	return nil
}

type rawProduct struct {
	ProductName       string        `json:"product_name"`
	MasterCode        string        `json:"master_code"`
	MasterID          string        `json:"master_id"`
	ShortDescription  string        `json:"short_description"`
	LongDescription   string        `json:"long_description"`
	Brand             string        `json:"brand"`
	Material          string        `json:"material"`
	Variants          []rawVariant  `json:"variants"`
	PrintingPositions []rawPosition `json:"printing_positions"`
}

type rawPriceEntry struct {
	VariantID string `json:"variant_id"`
	Price     string `json:"price"`
}

type rawStockEntry struct {
	SKU string `json:"sku"`
	Qty int64  `json:"qty"`
}

type rawTechnique struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Default    bool   `json:"default"`
	MaxColours string `json:"max_colours"`
}

// decodeList decodes each item independently so one malformed record cannot
// abort the batch; partially decodable records keep whatever fields parsed.
func decodeList[T any](items []json.RawMessage) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var value T
		_ = json.Unmarshal(item, &value)
		out = append(out, value)
	}
	return out
}

func decodeProducts(raw []byte) ([]rawProduct, error) {
	items, err := unwrapItems(domain.FeedProducts, raw, "products")
	if err != nil {
		return nil, err
	}
	return decodeList[rawProduct](items), nil
}

func decodePriceList(raw []byte) ([]rawPriceEntry, error) {
	items, err := unwrapItems(domain.FeedPriceList, raw, "price")
	if err != nil {
		return nil, err
	}
	return decodeList[rawPriceEntry](items), nil
}

func decodeStock(raw []byte) ([]rawStockEntry, error) {
	items, err := unwrapItems(domain.FeedStock, raw, "stock")
	if err != nil {
		return nil, err
	}
	return decodeList[rawStockEntry](items), nil
}

func decodePrintData(raw []byte) ([]rawProduct, []rawTechnique, error) {
	items, err := unwrapItems(domain.FeedPrintData, raw, "products")
	if err != nil {
		return nil, nil, err
	}
	products := decodeList[rawProduct](items)

	techniquesRaw, err := unwrapField(domain.FeedPrintData, raw, "printing_techniques")
	if err != nil {
		return nil, nil, err
	}
	var techniques []rawTechnique
	if len(techniquesRaw) > 0 {
		var refs []json.RawMessage
		if err := json.Unmarshal(techniquesRaw, &refs); err == nil {
			techniques = decodeList[rawTechnique](refs)
		}
	}
	return products, techniques, nil
}
