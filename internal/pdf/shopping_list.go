// Package pdf renders the shopping list document.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Options configure the document. FontPath points at a UTF-8 TrueType font;
// without it a core font is used and text is translated to cp1252.
type Options struct {
	Title    string
	Footer   string
	FontPath string
}

// ShoppingListRenderer draws the aggregated cart as a table.
type ShoppingListRenderer struct {
	opts Options
}

func NewShoppingListRenderer(opts Options) *ShoppingListRenderer {
	if opts.Title == "" {
		opts.Title = "Shopping list"
	}
	return &ShoppingListRenderer{opts: opts}
}

const (
	margin     = 10.0
	rowHeight  = 8.0
	nameWidth  = 105.0
	unitWidth  = 45.0
	countWidth = 45.0
	footerArea = 20.0
)

// Render returns the PDF bytes: a title, a name/unit/quantity table whose header
// repeats on every page, and a footer with page numbers.
func (r *ShoppingListRenderer) Render(items []types.ShoppingItem) ([]byte, error) {
	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, footerArea)
	doc.AliasNbPages("")
	doc.SetTitle(r.opts.Title, true)
	doc.SetCreator("foodgram", true)

	family := "Helvetica"
	tr := doc.UnicodeTranslatorFromDescriptor("")
	if r.opts.FontPath != "" {
		family = "DejaVu"
		doc.AddUTF8Font(family, "", r.opts.FontPath)
		doc.AddUTF8Font(family, "B", r.opts.FontPath)
		tr = func(s string) string { return s }
	}

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(family, "", 8)
		doc.SetTextColor(120, 120, 120)
		text := fmt.Sprintf("%s - Page %d/{nb}", r.opts.Footer, doc.PageNo())
		if r.opts.Footer == "" {
			text = fmt.Sprintf("Page %d/{nb}", doc.PageNo())
		}
		doc.CellFormat(0, 10, tr(text), "T", 0, "C", false, 0, "")
	})

	header := func() {
		doc.SetFont(family, "B", 11)
		doc.SetFillColor(52, 73, 94)
		doc.SetTextColor(255, 255, 255)
		doc.CellFormat(nameWidth, rowHeight, tr("Ingredient"), "1", 0, "L", true, 0, "")
		doc.CellFormat(unitWidth, rowHeight, tr("Unit"), "1", 0, "C", true, 0, "")
		doc.CellFormat(countWidth, rowHeight, tr("Quantity"), "1", 1, "R", true, 0, "")
		doc.SetFont(family, "", 11)
		doc.SetTextColor(0, 0, 0)
	}

	doc.AddPage()
	doc.SetFont(family, "B", 18)
	doc.CellFormat(0, 12, tr(r.opts.Title), "", 1, "C", false, 0, "")
	doc.Ln(4)
	header()

	_, pageHeight := doc.GetPageSize()
	if len(items) == 0 {
		doc.CellFormat(nameWidth+unitWidth+countWidth, rowHeight, tr("Your shopping cart is empty."), "1", 1, "C", false, 0, "")
	}
	for i, item := range items {
		if doc.GetY()+rowHeight > pageHeight-footerArea {
			doc.AddPage()
			header()
		}
		fill := i%2 == 1
		doc.SetFillColor(242, 242, 242)
		doc.CellFormat(nameWidth, rowHeight, tr(item.Name), "1", 0, "L", fill, 0, "")
		doc.CellFormat(unitWidth, rowHeight, tr(item.MeasurementUnit), "1", 0, "C", fill, 0, "")
		doc.CellFormat(countWidth, rowHeight, strconv.FormatInt(item.TotalAmount, 10), "1", 1, "R", fill, 0, "")
	}

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to render shopping list: %w", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write shopping list: %w", err)
	}
	return buf.Bytes(), nil
}
