package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uniqmaker/api/internal/domain"
)

const frontImageSubtype = "item_picture_front"

// Normalize reconciles the latest products, pricelist and stock payloads into
// the denormalized storefront view, one entry per product in feed order.
//
// products is mandatory; a nil payload means the feed has never been fetched
// and yields ErrNoSnapshot. pricelist and stock are optional; nil is treated
// as an empty feed. The function performs no I/O and never mutates its
// inputs; anything that fails inside a single product degrades to
// null/0/skip instead of aborting the batch.
func Normalize(products, pricelist, stock []byte) ([]domain.UnifiedProductView, error) {
	if len(products) == 0 {
		return nil, ErrNoSnapshot
	}

	rawProducts, err := decodeProducts(products)
	if err != nil {
		return nil, err
	}

	prices, err := buildPriceLookup(pricelist)
	if err != nil {
		return nil, err
	}

	stockByKey, err := buildStockAggregation(stock)
	if err != nil {
		return nil, err
	}

	views := make([]domain.UnifiedProductView, 0, len(rawProducts))
	for _, product := range rawProducts {
		views = append(views, normalizeProduct(product, prices, stockByKey))
	}
	return views, nil
}

// buildPriceLookup maps variant_id to its raw price string. Duplicate variant
// ids overwrite earlier entries; the gateway emits the authoritative row last,
// so last-wins applies to the raw rows before parsing. Parsing happens at join
// time, so a final duplicate that does not parse displaces an earlier
// parseable price instead of being dropped.
func buildPriceLookup(pricelist []byte) (map[string]string, error) {
	lookup := make(map[string]string)
	if len(pricelist) == 0 {
		return lookup, nil
	}
	entries, err := decodePriceList(pricelist)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.VariantID == "" {
			continue
		}
		lookup[entry.VariantID] = entry.Price
	}
	return lookup, nil
}

// parsePrice converts the gateway's comma-decimal price strings ("12,50").
func parsePrice(value string) (decimal.Decimal, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if normalized == "" {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return price, true
}

// buildStockAggregation sums quantities per stock key. The key is the SKU
// prefix before the first hyphen (the whole SKU when no hyphen is present),
// which matches the product master code.
// TODO: revisit the key extraction if the supplier ever ships SKUs with a
// hyphenated master segment; today every master code is hyphen-free.
func buildStockAggregation(stock []byte) (map[string]int64, error) {
	byKey := make(map[string]int64)
	if len(stock) == 0 {
		return byKey, nil
	}
	entries, err := decodeStock(stock)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		key := stockKey(entry.SKU)
		if key == "" {
			continue
		}
		byKey[key] += entry.Qty
	}
	return byKey, nil
}

func stockKey(sku string) string {
	key, _, _ := strings.Cut(sku, "-")
	return key
}

func normalizeProduct(product rawProduct, prices map[string]string, stockByKey map[string]int64) domain.UnifiedProductView {
	view := domain.UnifiedProductView{
		ProductName:      product.ProductName,
		MasterCode:       product.MasterCode,
		ShortDescription: product.ShortDescription,
		LongDescription:  product.LongDescription,
		Brand:            product.Brand,
		Material:         product.Material,
		Stock:            int(stockByKey[product.MasterCode]),
		Images:           positionImages(product.PrintingPositions),
		Variants:         make([]domain.VariantView, 0, len(product.Variants)),
	}

	var minPrice *decimal.Decimal
	for _, variant := range product.Variants {
		view.Variants = append(view.Variants, domain.VariantView{
			VariantID: variant.VariantID,
			SKU:       variant.SKU,
			Color:     variant.ColorDescription,
			ColorCode: variant.ColorCode,
			GTIN:      variant.GTIN,
			Images:    variantImages(variant.DigitalAssets),
		})

		if variant.VariantID == "" {
			continue
		}
		raw, ok := prices[variant.VariantID]
		if !ok {
			continue
		}
		price, ok := parsePrice(raw)
		if !ok {
			continue
		}
		if minPrice == nil || price.LessThan(*minPrice) {
			p := price
			minPrice = &p
		}
	}

	if minPrice != nil {
		value := minPrice.InexactFloat64()
		view.Price = &value
	}

	// Category levels come from the first variant only; products without
	// variants keep them null.
	if len(product.Variants) > 0 {
		first := product.Variants[0]
		view.CategoryLevel1 = first.CategoryLevel1
		view.CategoryLevel2 = first.CategoryLevel2
		view.CategoryLevel3 = first.CategoryLevel3
	}

	return view
}

// variantImages keeps only image-typed digital assets, preferring the
// high-resolution URL when the gateway provides both.
func variantImages(assets []rawAsset) []domain.VariantImage {
	images := make([]domain.VariantImage, 0, len(assets))
	for _, asset := range assets {
		if asset.Type != "image" {
			continue
		}
		url := asset.URLHighRes
		if url == "" {
			url = asset.URL
		}
		images = append(images, domain.VariantImage{Subtype: asset.Subtype, URL: url})
	}
	return images
}

// positionImages collects product-level images from printing positions. One
// source image object can emit two entries, one per present rendering. The
// list is independent of variant-level images and is never merged with them.
func positionImages(positions []rawPosition) []domain.ProductImage {
	var images []domain.ProductImage
	for _, position := range positions {
		for _, img := range position.Images {
			if img.Blank != nil {
				images = append(images, domain.ProductImage{
					Source:  "printing_positions",
					Type:    "blank",
					Subtype: img.Subtype,
					URL:     *img.Blank,
				})
			}
			if img.WithArea != nil {
				images = append(images, domain.ProductImage{
					Source:  "printing_positions",
					Type:    "with_area",
					Subtype: img.Subtype,
					URL:     *img.WithArea,
				})
			}
		}
	}
	return sortFrontFirst(images)
}

// sortFrontFirst moves front-picture entries to the head of the list while
// preserving the relative order of everything else. A plain two-bucket
// partition keeps the sort stable and single-keyed.
func sortFrontFirst(images []domain.ProductImage) []domain.ProductImage {
	if len(images) < 2 {
		return images
	}
	front := make([]domain.ProductImage, 0, len(images))
	rest := make([]domain.ProductImage, 0, len(images))
	for _, img := range images {
		if img.Subtype == frontImageSubtype {
			front = append(front, img)
		} else {
			rest = append(rest, img)
		}
	}
	return append(front, rest...)
}
