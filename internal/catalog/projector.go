package catalog

import (
	"github.com/uniqmaker/api/internal/domain"
)

// ProjectPrintData extracts the printing data for a single master code from
// the printdata payload. Technique references on each position are resolved
// against the feed-level technique table; references to ids missing from the
// table are dropped from the output rather than surfaced as errors.
//
// The first product matching the master code wins; the feed is not expected
// to carry duplicates, but a duplicate would not fail the projection.
func ProjectPrintData(raw []byte, masterCode string) (*domain.PrintDataView, error) {
	if len(raw) == 0 {
		return nil, ErrNoSnapshot
	}

	products, techniques, err := decodePrintData(raw)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.PrintingTechnique, len(techniques))
	for _, t := range techniques {
		if t.ID == "" {
			continue
		}
		byID[t.ID] = domain.PrintingTechnique{
			ID:         t.ID,
			Name:       t.Name,
			Default:    t.Default,
			MaxColours: t.MaxColours,
		}
	}

	for _, product := range products {
		if product.MasterCode != masterCode {
			continue
		}
		view := &domain.PrintDataView{
			MasterCode:  product.MasterCode,
			MasterID:    product.MasterID,
			ProductName: product.ProductName,
			Positions:   make([]domain.PrintPositionView, 0, len(product.PrintingPositions)),
		}
		for _, position := range product.PrintingPositions {
			view.Positions = append(view.Positions, projectPosition(position, byID))
		}
		return view, nil
	}
	return nil, ErrNotFound
}

func projectPosition(position rawPosition, techniques map[string]domain.PrintingTechnique) domain.PrintPositionView {
	view := domain.PrintPositionView{
		PositionID:         position.PositionID,
		PositionName:       position.PositionName,
		PrintPositionType:  position.PrintPositionType,
		MaxPrintSizeWidth:  position.MaxPrintSizeWidth,
		MaxPrintSizeHeight: position.MaxPrintSizeHeight,
		PrintSizeUnit:      position.PrintSizeUnit,
		Rotation:           position.Rotation,
		Points:             position.Points,
		Images:             make([]domain.PrintPositionImage, 0, len(position.Images)),
		Techniques:         make([]domain.PrintingTechnique, 0, len(position.PrintingTechniques)),
	}
	for _, img := range position.Images {
		entry := domain.PrintPositionImage{}
		if img.Blank != nil {
			entry.Blank = *img.Blank
		}
		if img.WithArea != nil {
			entry.WithArea = *img.WithArea
		}
		view.Images = append(view.Images, entry)
	}
	for _, ref := range position.PrintingTechniques {
		technique, ok := techniques[ref.ID]
		if !ok {
			continue
		}
		view.Techniques = append(view.Techniques, technique)
	}
	return view
}
