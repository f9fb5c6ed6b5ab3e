package service

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"github.com/VoltaiLTD/voltdesigns/config"
	"github.com/VoltaiLTD/voltdesigns/model"
	"github.com/VoltaiLTD/voltdesigns/pricing"
	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// InvoiceLine is one row of the invoice table.
type InvoiceLine struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Invoice is the document model the composer renders. It is assembled from a
// quote payload by the handler, or supplied directly by the ad-hoc invoice
// endpoint.
type Invoice struct {
	Number      string
	Date        time.Time
	BillToName  string
	BillToEmail string
	Project     string
	Lines       []InvoiceLine
	Totals      model.Totals
	Items       []string // selected slugs and preview paths, for the notes block
	Notes       string
	QRText      string
	PaymentLink string
}

// Composer renders invoices as single-page A4 PDFs. Optional elements (logo,
// UTF-8 font, QR code) are each best-effort: failure to embed any of them
// degrades the document instead of failing the request.
type Composer struct {
	company *config.CompanyConfig
	pricing *config.PricingConfig
	assets  *config.AssetsConfig
}

func NewComposer(company *config.CompanyConfig, pricingCfg *config.PricingConfig, assets *config.AssetsConfig) *Composer {
	return &Composer{
		company: company,
		pricing: pricingCfg,
		assets:  assets,
	}
}

// NewInvoiceNumber builds a reference like VDA-20250117-4821. The random
// suffix is for uniqueness, not reproducibility.
func NewInvoiceNumber(prefix string) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, time.Now().Format("20060102"), 1000+rand.Intn(9000))
}

const (
	pageWidth  = 210.0 // A4 portrait, mm
	pageHeight = 297.0
	margin     = 15.0
)

// Compose renders the invoice and returns the PDF bytes. It has no side
// effects; the bytes are its only output.
func (c *Composer) Compose(inv *Invoice) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, margin)
	doc.SetMargins(margin, margin, margin)
	doc.AddPage()

	family, unicode := c.loadFont(doc)
	prefix := c.currencyPrefix(unicode)

	// Header band
	c.embedLogo(doc)
	doc.SetFont(family, "B", 16)
	doc.SetTextColor(242, 204, 51)
	doc.SetXY(margin+24, 14)
	doc.CellFormat(100, 8, c.company.Name, "", 0, "L", false, 0, "")

	doc.SetTextColor(0, 0, 0)
	doc.SetFont(family, "B", 13)
	doc.SetXY(pageWidth-margin-60, 14)
	doc.CellFormat(60, 8, "Invoice / Quote", "", 0, "R", false, 0, "")

	doc.SetDrawColor(190, 190, 190)
	doc.Line(margin, 34, pageWidth-margin, 34)

	// Company identity block and invoice meta
	date := inv.Date
	if date.IsZero() {
		date = time.Now()
	}

	doc.SetFont(family, "", 9)
	y := 40.0
	for _, line := range c.companyBlock() {
		doc.SetXY(margin, y)
		doc.CellFormat(110, 4.5, line, "", 0, "L", false, 0, "")
		y += 4.5
	}

	doc.SetXY(pageWidth-margin-70, 40)
	doc.CellFormat(70, 4.5, "Invoice #: "+inv.Number, "", 0, "L", false, 0, "")
	doc.SetXY(pageWidth-margin-70, 44.5)
	doc.CellFormat(70, 4.5, "Date: "+date.Format("02 Jan 2006"), "", 0, "L", false, 0, "")

	// Bill-to block
	y = 62
	doc.SetFont(family, "B", 11)
	doc.SetXY(margin, y)
	doc.CellFormat(90, 5.5, "Bill To:", "", 0, "L", false, 0, "")
	doc.SetFont(family, "", 10)
	if inv.BillToName != "" {
		y += 6
		doc.SetXY(margin, y)
		doc.CellFormat(110, 5, inv.BillToName, "", 0, "L", false, 0, "")
	}
	if inv.BillToEmail != "" {
		y += 5
		doc.SetXY(margin, y)
		doc.CellFormat(110, 5, inv.BillToEmail, "", 0, "L", false, 0, "")
	}
	if inv.Project != "" {
		y += 7
		doc.SetFont(family, "B", 10)
		doc.SetXY(margin, y)
		doc.CellFormat(25, 5, "Project:", "", 0, "L", false, 0, "")
		doc.SetFont(family, "", 10)
		doc.SetXY(margin+25, y)
		doc.CellFormat(110, 5, inv.Project, "", 0, "L", false, 0, "")
	}

	// Line-item table
	y = 94
	colDesc, colQty, colUnit, colAmount := 85.0, 30.0, 32.0, 33.0

	doc.SetFont(family, "B", 9)
	doc.SetFillColor(245, 245, 245)
	doc.SetXY(margin, y)
	doc.CellFormat(colDesc, 7, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(colQty, 7, "Qty", "1", 0, "C", true, 0, "")
	doc.CellFormat(colUnit, 7, "Unit Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(colAmount, 7, "Amount", "1", 0, "R", true, 0, "")
	y += 7

	doc.SetFont(family, "", 9)
	for _, line := range inv.Lines {
		label := line.Label
		if line.Description != "" {
			label += " - " + line.Description
		}
		doc.SetXY(margin, y)
		doc.CellFormat(colDesc, 7, truncateToWidth(doc, label, colDesc-2), "1", 0, "L", false, 0, "")
		doc.CellFormat(colQty, 7, line.Quantity, "1", 0, "C", false, 0, "")
		doc.CellFormat(colUnit, 7, prefix+formatMoney(line.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(colAmount, 7, prefix+formatMoney(line.Amount), "1", 0, "R", false, 0, "")
		y += 7
	}

	// Selected items / notes
	y += 8
	if len(inv.Items) > 0 || inv.Notes != "" {
		doc.SetFont(family, "B", 10)
		doc.SetXY(margin, y)
		doc.CellFormat(90, 5, "Items / Notes:", "", 0, "L", false, 0, "")
		y += 6
		doc.SetFont(family, "", 9)
		text := strings.Join(inv.Items, ", ")
		if inv.Notes != "" {
			if text != "" {
				text += "\n"
			}
			text += inv.Notes
		}
		text = truncateRunes(text, 1000)
		doc.SetXY(margin, y)
		doc.MultiCell(pageWidth-2*margin, 4.5, text, "", "L", false)
		y = doc.GetY() + 4
	}

	// Totals box, values right-aligned by measured width so they never
	// overflow the column.
	boxX := pageWidth - margin - 75
	rows := []struct {
		label string
		value string
		bold  bool
	}{
		{"Materials", prefix + formatMoney(inv.Totals.MaterialCost), false},
		{"Installation", prefix + formatMoney(inv.Totals.InstallCost), false},
		{"Subtotal", prefix + formatMoney(inv.Totals.Subtotal), false},
		{fmt.Sprintf("VAT (%s%%)", trimRate(inv.Totals.VATRate)), prefix + formatMoney(inv.Totals.VAT), false},
		{"Total", prefix + formatMoney(inv.Totals.Total), true},
	}

	ty := y + 2
	for _, row := range rows {
		style := ""
		size := 9.5
		if row.bold {
			style = "B"
			size = 11.5
			doc.SetDrawColor(120, 120, 120)
			doc.Line(boxX, ty, pageWidth-margin, ty)
			ty += 1.5
		}
		doc.SetFont(family, style, size)
		doc.SetXY(boxX, ty)
		doc.CellFormat(35, 5.5, row.label, "", 0, "L", false, 0, "")

		valueX := pageWidth - margin - doc.GetStringWidth(row.value)
		doc.SetXY(valueX, ty)
		doc.CellFormat(doc.GetStringWidth(row.value), 5.5, row.value, "", 0, "L", false, 0, "")
		ty += 5.5
	}

	// Payment details footer
	py := 245.0
	doc.SetFont(family, "B", 10)
	doc.SetXY(margin, py)
	doc.CellFormat(90, 5, "Payment Details", "", 0, "L", false, 0, "")
	doc.SetFont(family, "", 9)
	py += 6
	doc.SetXY(margin, py)
	doc.CellFormat(120, 4.5, fmt.Sprintf("%s - %s", orDash(c.company.BankName), orDash(c.company.AccountName)), "", 0, "L", false, 0, "")
	py += 4.5
	doc.SetXY(margin, py)
	doc.CellFormat(120, 4.5, "Account No: "+orDash(c.company.AccountNumber), "", 0, "L", false, 0, "")
	if inv.PaymentLink != "" {
		py += 4.5
		doc.SetXY(margin, py)
		doc.CellFormat(120, 4.5, "Pay online: "+inv.PaymentLink, "", 0, "L", false, 0, "")
	}

	// Machine-scannable payment code
	c.embedQR(doc, inv)

	doc.SetDrawColor(190, 190, 190)
	doc.Line(margin, 278, pageWidth-margin, 278)
	doc.SetFont(family, "", 9)
	doc.SetTextColor(60, 60, 60)
	doc.SetXY(margin, 282)
	doc.CellFormat(160, 5, fmt.Sprintf("Thank you for choosing %s.", c.company.Name), "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildQuoteLines assembles the invoice table for a quote submission: a
// materials row and, for installation fulfillment, an installation row. Row
// amounts always sum to the subtotal.
func BuildQuoteLines(d *model.QuoteDraft, totals *model.Totals, cfg *config.PricingConfig, itemNames []string) []InvoiceLine {
	mode := model.NormalizeBillingMode(string(d.BillingMode))
	qtyLabel := pricing.QuantityLabel(d)

	lines := []InvoiceLine{
		{
			Label:       "Materials",
			Description: strings.Join(itemNames, ", "),
			Quantity:    qtyLabel,
			UnitPrice:   pricing.UnitPrice(mode, cfg),
			Amount:      totals.MaterialCost,
		},
	}

	if totals.InstallCost > 0 {
		unit := pricing.InstallRate(mode, cfg)
		if unit == 0 {
			unit = totals.InstallCost // flat rate
		}
		lines = append(lines, InvoiceLine{
			Label:     "Installation",
			Quantity:  qtyLabel,
			UnitPrice: unit,
			Amount:    totals.InstallCost,
		})
	}

	return lines
}

// loadFont embeds the configured UTF-8 font and returns the family to use.
// When the font file is unreadable the composer falls back to the built-in
// Helvetica, and the caller must avoid glyphs outside cp1252.
func (c *Composer) loadFont(doc *fpdf.Fpdf) (family string, unicode bool) {
	regular := c.assets.FontRegular
	if regular == "" {
		regular = filepath.Join(c.assets.PublicDir, "fonts", "NotoSans-Regular.ttf")
	}

	regBytes, err := os.ReadFile(regular)
	if err != nil {
		slog.Debug("invoice font unavailable, falling back to Helvetica", "path", regular, "error", err)
		return "Helvetica", false
	}

	doc.AddUTF8FontFromBytes("invoice", "", regBytes)
	if doc.Err() {
		slog.Warn("failed to embed invoice font", "error", doc.Error())
		doc.ClearError()
		return "Helvetica", false
	}

	bold := c.assets.FontBold
	if bold == "" {
		bold = filepath.Join(c.assets.PublicDir, "fonts", "NotoSans-Bold.ttf")
	}
	boldBytes, err := os.ReadFile(bold)
	if err != nil {
		boldBytes = regBytes // fallback to regular if bold missing
	}
	doc.AddUTF8FontFromBytes("invoice", "B", boldBytes)
	if doc.Err() {
		doc.ClearError()
		doc.AddUTF8FontFromBytes("invoice", "B", regBytes)
		if doc.Err() {
			doc.ClearError()
			return "Helvetica", false
		}
	}

	return "invoice", true
}

// companyBlock lists the identity lines printed under the header band,
// skipping whatever is not configured.
func (c *Composer) companyBlock() []string {
	lines := make([]string, 0, 3)
	if c.company.Address != "" {
		lines = append(lines, c.company.Address)
	}
	if c.company.Phone != "" {
		lines = append(lines, "Phone: "+c.company.Phone)
	}
	if c.company.Email != "" {
		lines = append(lines, "Email: "+c.company.Email)
	}
	return lines
}

// currencyPrefix guards against missing glyphs: restrictive font subsets get
// the three-letter code instead of the symbol.
func (c *Composer) currencyPrefix(unicode bool) string {
	if unicode && c.pricing.CurrencySymbol != "" {
		return c.pricing.CurrencySymbol
	}
	return c.pricing.CurrencyCode + " "
}

func (c *Composer) embedLogo(doc *fpdf.Fpdf) {
	path := filepath.Join(c.assets.PublicDir, c.assets.LogoFile)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("logo unavailable, skipping", "path", path, "error", err)
		return
	}
	embedImage(doc, "logo", data, margin, 10, 18)
}

func (c *Composer) embedQR(doc *fpdf.Fpdf, inv *Invoice) {
	text := inv.QRText
	if text == "" {
		text = inv.PaymentLink
	}
	if text == "" {
		text = "Invoice " + inv.Number
	}

	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		slog.Warn("failed to generate payment QR code", "error", err)
		return
	}
	embedImage(doc, "payment-qr", png, pageWidth-margin-28, 244, 28)
}

// embedImage registers and places an image, validating it first so a corrupt
// asset cannot poison the document.
func embedImage(doc *fpdf.Fpdf, name string, data []byte, x, y, w float64) {
	_, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("skipping undecodable image", "name", name, "error", err)
		return
	}

	opts := fpdf.ImageOptions{ImageType: kind}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() {
		slog.Warn("failed to embed image", "name", name, "error", doc.Error())
		doc.ClearError()
		return
	}
	doc.ImageOptions(name, x, y, w, 0, false, opts, 0, "")
}

// formatMoney renders a two-decimal amount grouped by thousands: 1,234.50.
func formatMoney(v float64) string {
	s := strconv.FormatFloat(pricing.Round2(v), 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func trimRate(rate float64) string {
	s := strconv.FormatFloat(rate, 'f', -1, 64)
	return s
}

// truncateRunes caps s at n characters without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func truncateToWidth(doc *fpdf.Fpdf, s string, maxWidth float64) string {
	if doc.GetStringWidth(s) <= maxWidth {
		return s
	}
	for len(s) > 0 && doc.GetStringWidth(s+"...") > maxWidth {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
