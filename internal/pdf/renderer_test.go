package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/config"
	"github.com/uniqmaker/api/internal/services"
)

func testDocument() services.QuoteDocument {
	return services.QuoteDocument{
		Quote: domain.Quote{
			ID:       "qt_01",
			ClientID: "cl_01",
			Lines: []domain.QuoteLine{
				{ProductID: "SH01", ProductName: "Gourde isotherme", Qty: 50, PriceEstimate: 7.9},
				{ProductID: "MO2437", ProductName: "<b>Mug</b> émaillé", Qty: 10, PriceEstimate: 4.5},
			},
		},
		CompanyName: "Uniqmaker SARL",
		Contact:     "Jean Dupont",
		Email:       "jean@uniqmaker.fr",
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestRenderer(t *testing.T, captured *string) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(config.PDFConfig{}, WithPrintFunc(func(_ context.Context, html string) ([]byte, error) {
		*captured = html
		return []byte("%PDF-1.7 fake"), nil
	}))
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	return renderer
}

func TestRenderQuotePDF(t *testing.T) {
	var html string
	renderer := newTestRenderer(t, &html)

	pdf, err := renderer.RenderQuotePDF(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("RenderQuotePDF returned error: %v", err)
	}
	if string(pdf) != "%PDF-1.7 fake" {
		t.Fatalf("unexpected pdf output %q", pdf)
	}

	for _, want := range []string{
		"qt_01",
		"Uniqmaker SARL",
		"Jean Dupont",
		"01/03/2025",
		"Gourde isotherme",
		"7,90",
		"395,00",
		"440,00",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered html missing %q", want)
		}
	}
}

func TestRenderQuotePDFStripsMarkup(t *testing.T) {
	var html string
	renderer := newTestRenderer(t, &html)

	if _, err := renderer.RenderQuotePDF(context.Background(), testDocument()); err != nil {
		t.Fatalf("RenderQuotePDF returned error: %v", err)
	}
	if strings.Contains(html, "<b>") || strings.Contains(html, "&lt;b&gt;") {
		t.Fatalf("markup leaked into rendered html")
	}
	if !strings.Contains(html, "Mug émaillé") {
		t.Fatalf("sanitized product name missing")
	}
}

func TestRenderQuotePDFFallsBackToProductID(t *testing.T) {
	var html string
	renderer := newTestRenderer(t, &html)

	doc := testDocument()
	doc.Quote.Lines = []domain.QuoteLine{{ProductID: "SH01", Qty: 1, PriceEstimate: 1}}
	if _, err := renderer.RenderQuotePDF(context.Background(), doc); err != nil {
		t.Fatalf("RenderQuotePDF returned error: %v", err)
	}
	if !strings.Contains(html, "SH01") {
		t.Fatalf("product id fallback missing")
	}
}

func TestRenderQuotePDFPrintFailure(t *testing.T) {
	renderer, err := NewRenderer(config.PDFConfig{}, WithPrintFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("chrome unavailable")
	}))
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}

	if _, err := renderer.RenderQuotePDF(context.Background(), testDocument()); err == nil {
		t.Fatal("expected print failure to propagate")
	}
}
