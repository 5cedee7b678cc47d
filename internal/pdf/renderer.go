// Package pdf renders quote documents to PDF through a headless Chromium
// instance driven by chromedp.
package pdf

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/uniqmaker/api/internal/platform/config"
	"github.com/uniqmaker/api/internal/services"
)

//go:embed quote.html
var quoteTemplateHTML string

const defaultRenderTimeout = 30 * time.Second

// A4 paper in inches for page.PrintToPDF.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// chromeCandidates lists common Chromium install locations probed when no
// explicit path is configured.
var chromeCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/snap/bin/chromium",
}

type printFunc func(ctx context.Context, html string) ([]byte, error)

// Renderer turns a quote document into a PDF byte slice. Supplier-sourced
// text is stripped of markup before templating.
type Renderer struct {
	tmpl       *template.Template
	policy     *bluemonday.Policy
	euros      *message.Printer
	timeout    time.Duration
	chromePath string
	print      printFunc
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithPrintFunc replaces the headless-browser invocation. Intended for tests.
func WithPrintFunc(fn printFunc) Option {
	return func(r *Renderer) {
		r.print = fn
	}
}

// NewRenderer builds a quote PDF renderer from configuration.
func NewRenderer(cfg config.PDFConfig, opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("quote").Parse(quoteTemplateHTML)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: parse template: %w", err)
	}

	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	r := &Renderer{
		tmpl:       tmpl,
		policy:     bluemonday.StrictPolicy(),
		euros:      message.NewPrinter(language.French),
		timeout:    timeout,
		chromePath: cfg.ChromePath,
	}
	r.print = r.printWithChrome
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var _ services.QuotePDFRenderer = (*Renderer)(nil)

// RenderQuotePDF renders the quote template and prints it to PDF.
func (r *Renderer) RenderQuotePDF(ctx context.Context, doc services.QuoteDocument) ([]byte, error) {
	html, err := r.renderHTML(doc)
	if err != nil {
		return nil, err
	}
	pdf, err := r.print(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: print: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("pdf renderer: empty document")
	}
	return pdf, nil
}

type quoteLineView struct {
	Name      string
	Qty       int
	UnitPrice string
	Total     string
}

type quoteView struct {
	QuoteID     string
	CompanyName string
	Contact     string
	Email       string
	GeneratedAt string
	Lines       []quoteLineView
	Total       string
}

func (r *Renderer) renderHTML(doc services.QuoteDocument) (string, error) {
	view := quoteView{
		QuoteID:     doc.Quote.ID,
		CompanyName: r.policy.Sanitize(doc.CompanyName),
		Contact:     r.policy.Sanitize(doc.Contact),
		Email:       doc.Email,
		GeneratedAt: doc.GeneratedAt.Format("02/01/2006"),
	}

	total := decimal.Zero
	for _, line := range doc.Quote.Lines {
		unit := decimal.NewFromFloat(line.PriceEstimate)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Qty)))
		total = total.Add(lineTotal)

		name := r.policy.Sanitize(line.ProductName)
		if name == "" {
			name = line.ProductID
		}
		view.Lines = append(view.Lines, quoteLineView{
			Name:      name,
			Qty:       line.Qty,
			UnitPrice: r.formatEuros(unit),
			Total:     r.formatEuros(lineTotal),
		})
	}
	view.Total = r.formatEuros(total)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("pdf renderer: execute template: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) formatEuros(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return r.euros.Sprintf("%.2f €", value)
}

// printWithChrome loads the HTML into a headless Chromium tab and prints it.
func (r *Renderer) printWithChrome(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
	)
	if path := r.resolveChromePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

func (r *Renderer) resolveChromePath() string {
	if r.chromePath != "" {
		return r.chromePath
	}
	for _, candidate := range chromeCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
