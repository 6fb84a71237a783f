package shoppinglist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"

	"foodgram/internal/apperr"
	"foodgram/pkg/models"
)

// Format is a download format.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts txt, text, csv and pdf; empty means txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperr.FieldError("format", "must be one of: txt, csv, pdf")
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (f Format) Filename() string {
	return "shopping_cart." + string(f)
}

// Render writes items in format f.
func Render(w io.Writer, f Format, items []models.ShoppingItem) error {
	switch f {
	case FormatCSV:
		return RenderCSV(w, items)
	case FormatPDF:
		return RenderPDF(w, items)
	default:
		return RenderText(w, items)
	}
}

// RenderText writes one line per item in the legacy plain-text layout.
func RenderText(w io.Writer, items []models.ShoppingItem) error {
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%s — %d\n", it.Name, it.TotalAmount); err != nil {
			return err
		}
	}
	return nil
}

func RenderCSV(w io.Writer, items []models.ShoppingItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "measurement_unit", "total_amount"}); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write([]string{it.Name, it.MeasurementUnit, strconv.FormatInt(it.TotalAmount, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderPDF writes a one-table A4 document. Core fonts cover cp1252 only;
// other characters are replaced.
func RenderPDF(w io.Writer, items []models.ShoppingItem) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Shopping list", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Shopping list")
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(110, 8, "Ingredient", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Unit", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range items {
		pdf.CellFormat(110, 7, tr(it.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, tr(it.MeasurementUnit), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, strconv.FormatInt(it.TotalAmount, 10), "1", 1, "R", false, 0, "")
	}
	if len(items) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.CellFormat(180, 7, "Your shopping cart is empty.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}
