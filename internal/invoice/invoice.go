// Package invoice renders order receipts as PDF.
package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

const (
	DefaultCurrency = "INR"
	dateLayout      = "02 Jan 2006 15:04"
)

var ErrNoOrder = errors.New("order is required")

type Options struct {
	StoreName string
	Currency  string
}

// columns: #, Product, Size, Qty, Price, Total
var (
	headers = []string{"#", "Product", "Size", "Qty", "Price", "Total"}
	widths  = []float64{10, 80, 20, 15, 30, 35}
)

// QRPayload is the text encoded in the receipt's QR code.
func QRPayload(o *order.Order) string {
	return o.ID + "|" + o.PaymentID
}

func sizeLabel(s cart.Size) string {
	if s == cart.SizeNone {
		return "N/A"
	}
	return string(s)
}

// Render builds an A4 receipt for o.
func Render(o *order.Order, opts Options) ([]byte, error) {
	if o == nil {
		return nil, ErrNoOrder
	}
	if opts.StoreName == "" {
		opts.StoreName = "Storefront"
	}
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}

	qrPNG, err := qrcode.Encode(QRPayload(o), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, opts.StoreName+" - Invoice")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Order ID: "+o.ID)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Payment ID: "+o.PaymentID)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date: "+o.CreatedAt.Format(dateLayout))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, it := range o.Items {
		row := []string{
			strconv.Itoa(i + 1),
			it.Name,
			sizeLabel(it.SelectedSize),
			strconv.Itoa(it.Quantity),
			opts.Currency + " " + it.Price.StringFixed(2),
			opts.Currency + " " + it.Subtotal().StringFixed(2),
		}
		for j, cell := range row {
			align := "L"
			if j != 1 {
				align = "C"
			}
			pdf.CellFormat(widths[j], 8, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Grand Total: "+opts.Currency+" "+o.Amount.StringFixed(2), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the suggested download name for o's receipt.
func Filename(o *order.Order) string {
	return "invoice-" + o.ID + ".pdf"
}
