package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VoltaiLTD/voltdesigns/catalog"
	"github.com/VoltaiLTD/voltdesigns/config"
	"github.com/VoltaiLTD/voltdesigns/middleware"
	"github.com/VoltaiLTD/voltdesigns/model"
	"github.com/VoltaiLTD/voltdesigns/pkg/logger"
	"github.com/VoltaiLTD/voltdesigns/pricing"
	"github.com/VoltaiLTD/voltdesigns/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuoteHandler struct {
	cfg      *config.Config
	mailer   *service.Mailer
	composer *service.Composer
	archive  *service.ArchiveService
	drafts   *service.DraftStore
	store    *service.QuoteStore
}

// NewQuoteHandler wires the quote pipeline. archive may be nil when no
// object storage is configured; everything else is required.
func NewQuoteHandler(cfg *config.Config, mailer *service.Mailer, composer *service.Composer, archive *service.ArchiveService, drafts *service.DraftStore) *QuoteHandler {
	return &QuoteHandler{
		cfg:      cfg,
		mailer:   mailer,
		composer: composer,
		archive:  archive,
		drafts:   drafts,
		store:    service.GetQuoteStore(),
	}
}

// Estimate returns authoritative totals for a draft. The same function runs
// again on submission, so this preview can never drift from the invoice.
func (h *QuoteHandler) Estimate(c *gin.Context) {
	var draft model.QuoteDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	draft.Normalize()

	totals := pricing.Estimate(&draft, &h.cfg.Pricing)

	c.JSON(http.StatusOK, gin.H{
		"totals":        totals,
		"quantityLabel": pricing.QuantityLabel(&draft),
	})
}

// RequestQuote is the submission path: validate, re-estimate, compose the
// PDF, email it to the client, record the quote, archive best-effort, clear
// the draft.
func (h *QuoteHandler) RequestQuote(c *gin.Context) {
	var payload model.QuotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if payload.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	payload.Normalize()

	if !h.mailer.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrMailNotConfigured.Error()})
		return
	}

	// The client-side estimate in the payload is advisory only.
	totals := pricing.Estimate(&payload.QuoteDraft, &h.cfg.Pricing)

	invoiceNo := service.NewInvoiceNumber(h.cfg.Pricing.InvoicePrefix)
	itemNames := catalog.Names(payload.SelectedSlugs)

	inv := &service.Invoice{
		Number:      invoiceNo,
		Date:        time.Now(),
		BillToName:  payload.ClientName,
		BillToEmail: payload.Email,
		Project:     payload.ProjectName,
		Lines:       service.BuildQuoteLines(&payload.QuoteDraft, &totals, &h.cfg.Pricing, itemNames),
		Totals:      totals,
		Items:       append(append([]string{}, payload.SelectedSlugs...), payload.SelectedPaths...),
		Notes:       payload.Message,
		QRText:      h.qrText(),
		PaymentLink: h.cfg.Mail.PaymentLink,
	}

	pdf, err := h.composer.Compose(inv)
	if err != nil {
		slog.Error("invoice composition failed",
			"invoice_no", invoiceNo,
			"error", err,
			"request_id", middleware.GetRequestID(c),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compose invoice"})
		return
	}

	record := &model.QuoteRecord{
		ID:            uuid.New().String(),
		InvoiceNumber: invoiceNo,
		Draft:         payload.QuoteDraft,
		Totals:        totals,
		Status:        model.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	h.store.Save(record)

	msg := &service.Message{
		To:      []string{payload.Email},
		Subject: fmt.Sprintf("Quote %s — %s", invoiceNo, h.cfg.Company.Name),
		HTML:    h.customerEmailHTML(&payload, invoiceNo),
		Attachments: []service.Attachment{{
			Filename: attachmentName(&payload.QuoteDraft, invoiceNo),
			Content:  base64.StdEncoding.EncodeToString(pdf),
		}},
	}

	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		h.store.UpdateStatus(record.ID, model.StatusFailed, err.Error())
		h.mailError(c, invoiceNo, err)
		return
	}
	h.store.UpdateStatus(record.ID, model.StatusSent, "")

	ctx := context.WithValue(c.Request.Context(), logger.InvoiceKey, invoiceNo)
	ctx = context.WithValue(ctx, logger.ClientKey, payload.Email)
	logger.Info(ctx, "quote emailed", "total", totals.Total, "attachment_bytes", len(pdf))

	h.archiveInvoice(c, record, pdf)

	if key, err := c.Cookie(SessionCookie); err == nil && key != "" {
		h.drafts.Clear(key)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "invoiceNumber": invoiceNo})
}

// salesNotice is the sales-notification body. Selections accepts either a
// JSON array or a comma-separated string.
type salesNotice struct {
	ProjectName string           `json:"projectName"`
	ClientName  string           `json:"clientName"`
	Email       string           `json:"email"`
	Message     string           `json:"message"`
	Selections  model.StringList `json:"selections"`
	Estimate    float64          `json:"estimate"`
}

// NotifySales emails the quote request summary to the sales inbox, with
// reply-to set to the requester.
func (h *QuoteHandler) NotifySales(c *gin.Context) {
	var notice salesNotice
	if err := c.ShouldBindJSON(&notice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !h.mailer.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "RESEND_API_KEY is not configured on the server."})
		return
	}

	subject := "Quote request: " + orDefault(notice.ProjectName, "Untitled")

	msg := &service.Message{
		To:      []string{h.cfg.Mail.SalesTo},
		Subject: subject,
		HTML:    h.salesEmailHTML(&notice),
		ReplyTo: notice.Email,
	}

	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		h.mailError(c, "", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "via": "resend"})
}

// invoiceRequest is the ad-hoc invoice body: a quote payload, optionally
// with explicit line items overriding the estimator-derived ones.
type invoiceRequest struct {
	model.QuotePayload
	Number string                `json:"number"`
	Lines  []service.InvoiceLine `json:"lines"`
}

// Invoice composes an invoice and returns it inline as application/pdf
// instead of emailing it.
func (h *QuoteHandler) Invoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Normalize()

	totals := pricing.Estimate(&req.QuoteDraft, &h.cfg.Pricing)

	lines := req.Lines
	if len(lines) == 0 {
		lines = service.BuildQuoteLines(&req.QuoteDraft, &totals, &h.cfg.Pricing, catalog.Names(req.SelectedSlugs))
	} else {
		totals = lineTotals(lines, &h.cfg.Pricing)
	}

	number := req.Number
	if number == "" {
		number = service.NewInvoiceNumber(h.cfg.Pricing.InvoicePrefix)
	}

	inv := &service.Invoice{
		Number:      number,
		Date:        time.Now(),
		BillToName:  req.ClientName,
		BillToEmail: req.Email,
		Project:     req.ProjectName,
		Lines:       lines,
		Totals:      totals,
		Items:       append(append([]string{}, req.SelectedSlugs...), req.SelectedPaths...),
		Notes:       req.Message,
		QRText:      h.qrText(),
		PaymentLink: h.cfg.Mail.PaymentLink,
	}

	pdf, err := h.composer.Compose(inv)
	if err != nil {
		slog.Error("invoice composition failed",
			"invoice_no", number,
			"error", err,
			"request_id", middleware.GetRequestID(c),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compose invoice"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// List returns recorded submissions, newest first, without the full draft.
func (h *QuoteHandler) List(c *gin.Context) {
	records := h.store.List()

	result := make([]gin.H, len(records))
	for i, r := range records {
		result[i] = gin.H{
			"id":             r.ID,
			"invoice_number": r.InvoiceNumber,
			"client_name":    r.Draft.ClientName,
			"email":          r.Draft.Email,
			"total":          r.Totals.Total,
			"status":         r.Status,
			"created_at":     r.CreatedAt.Format(time.RFC3339),
			"updated_at":     r.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"quotes": result})
}

// Get returns a single recorded submission.
func (h *QuoteHandler) Get(c *gin.Context) {
	record := h.store.Get(c.Param("id"))
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// mailError maps mailer failures onto the response: missing credential is a
// server configuration problem, everything else is the upstream provider's
// rejection passed through as 502.
func (h *QuoteHandler) mailError(c *gin.Context, invoiceNo string, err error) {
	slog.Error("email send failed",
		"invoice_no", invoiceNo,
		"error", err,
		"request_id", middleware.GetRequestID(c),
	)

	if errors.Is(err, service.ErrMailNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var te *service.TransportError
	if errors.As(err, &te) && te.Message != "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": te.Message})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Email send failed"})
}

// archiveInvoice stores the PDF in object storage when configured. Failures
// are logged and skipped; the quote already went out.
func (h *QuoteHandler) archiveInvoice(c *gin.Context, record *model.QuoteRecord, pdf []byte) {
	if h.archive == nil {
		return
	}

	objectName := fmt.Sprintf("invoices/%s/%s.pdf", record.CreatedAt.Format("2006/01"), record.InvoiceNumber)
	url, err := h.archive.StoreInvoice(c.Request.Context(), objectName, pdf)
	if err != nil {
		slog.Warn("invoice archive failed",
			"invoice_no", record.InvoiceNumber,
			"error", err,
			"request_id", middleware.GetRequestID(c),
		)
		return
	}
	h.store.SetArchiveURL(record.ID, url)
}

func (h *QuoteHandler) qrText() string {
	if h.cfg.Mail.PaymentLink != "" {
		return h.cfg.Mail.PaymentLink
	}
	return h.cfg.Assets.SiteURL
}

// customerEmailHTML renders the email that carries the PDF attachment.
func (h *QuoteHandler) customerEmailHTML(p *model.QuotePayload, invoiceNo string) string {
	company := &h.cfg.Company
	symbol := h.cfg.Pricing.CurrencySymbol
	totals := pricing.Estimate(&p.QuoteDraft, &h.cfg.Pricing)

	selected := strings.Join(append(append([]string{}, p.SelectedSlugs...), p.SelectedPaths...), ", ")

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="font-family:Inter,system-ui,Segoe UI,Roboto,Arial,sans-serif;color:#111;background:#f7f7f7;padding:24px">`)
	fmt.Fprintf(&b, `<table width="100%%" cellspacing="0" cellpadding="0" style="max-width:640px;margin:0 auto;background:#fff;border-radius:12px;overflow:hidden">`)
	fmt.Fprintf(&b, `<tr><td style="padding:20px 24px;background:#000;color:#f5d66b;"><div style="font-weight:700">%s</div></td></tr>`, html.EscapeString(company.Name))
	fmt.Fprintf(&b, `<tr><td style="padding:24px">`)
	fmt.Fprintf(&b, `<h2 style="margin:0 0 8px 0;">Invoice / Quote: %s</h2>`, html.EscapeString(invoiceNo))
	fmt.Fprintf(&b, `<p style="margin:0 0 16px 0;color:#444">Hi %s, please find your quote attached as a PDF.</p>`, html.EscapeString(orDefault(p.ClientName, "there")))

	fmt.Fprintf(&b, `<div style="margin:16px 0;padding:12px;border:1px solid #eee;border-radius:10px;background:#fafafa">`)
	fmt.Fprintf(&b, `<div><strong>Project:</strong> %s</div>`, html.EscapeString(orDefault(p.ProjectName, "—")))
	fmt.Fprintf(&b, `<div><strong>Mode:</strong> %s</div>`, html.EscapeString(pricing.QuantityLabel(&p.QuoteDraft)))
	fmt.Fprintf(&b, `<div><strong>Fulfillment:</strong> %s</div>`, html.EscapeString(string(p.Fulfillment)))
	fmt.Fprintf(&b, `<div><strong>Selected:</strong> %s</div>`, html.EscapeString(orDefault(selected, "—")))
	fmt.Fprintf(&b, `<div style="margin-top:8px"><strong>Estimate:</strong> %s</div>`, html.EscapeString(moneyString(symbol, totals.Total)))
	fmt.Fprintf(&b, `</div>`)

	if link := h.cfg.Mail.PaymentLink; link != "" {
		fmt.Fprintf(&b, `<p style="margin:12px 0 24px 0"><a href="%s" style="display:inline-block;background:#f5d66b;color:#000;text-decoration:none;padding:12px 16px;border-radius:10px;font-weight:600">Pay online</a></p>`, html.EscapeString(link))
	}

	fmt.Fprintf(&b, `<p style="margin:0 0 4px 0;font-weight:600">Company</p>`)
	fmt.Fprintf(&b, `<p style="margin:0 0 2px 0">%s</p>`, html.EscapeString(company.Name))
	fmt.Fprintf(&b, `<p style="margin:0 0 2px 0">%s</p>`, html.EscapeString(company.Address))
	fmt.Fprintf(&b, `<p style="margin:0 0 2px 0">Phone: %s</p>`, html.EscapeString(company.Phone))
	fmt.Fprintf(&b, `<p style="margin:0 0 2px 0">Email: %s</p>`, html.EscapeString(company.Email))
	fmt.Fprintf(&b, `<p style="margin:16px 0 0 0;color:#666;font-size:12px">Bank: %s • %s • %s</p>`,
		html.EscapeString(company.BankName), html.EscapeString(company.AccountName), html.EscapeString(company.AccountNumber))
	fmt.Fprintf(&b, `</td></tr></table></div>`)

	return b.String()
}

// salesEmailHTML renders the internal notification. Every field is escaped;
// newlines in the message become <br/>.
func (h *QuoteHandler) salesEmailHTML(n *salesNotice) string {
	symbol := h.cfg.Pricing.CurrencySymbol

	escaped := make([]string, len(n.Selections))
	for i, s := range n.Selections {
		escaped[i] = html.EscapeString(s)
	}
	message := strings.ReplaceAll(html.EscapeString(n.Message), "\n", "<br/>")

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New Quote Request</h2>")
	fmt.Fprintf(&b, "<p><b>Project:</b> %s</p>", html.EscapeString(n.ProjectName))
	fmt.Fprintf(&b, "<p><b>Client:</b> %s</p>", html.EscapeString(n.ClientName))
	fmt.Fprintf(&b, "<p><b>Email:</b> %s</p>", html.EscapeString(n.Email))
	fmt.Fprintf(&b, "<p><b>Estimate:</b> %s</p>", html.EscapeString(moneyString(symbol, n.Estimate)))
	fmt.Fprintf(&b, "<p><b>Selections:</b> %s</p>", strings.Join(escaped, ", "))
	fmt.Fprintf(&b, "<p><b>Message:</b><br/>%s</p>", message)

	return b.String()
}

// attachmentName builds <client>-<project>.pdf slugified, falling back to
// the invoice number when both are blank.
func attachmentName(d *model.QuoteDraft, invoiceNo string) string {
	parts := make([]string, 0, 2)
	if s := model.Slugify(d.ClientName); s != "" {
		parts = append(parts, s)
	}
	if s := model.Slugify(d.ProjectName); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return invoiceNo + ".pdf"
	}
	return strings.Join(parts, "-") + ".pdf"
}

// lineTotals derives totals from explicit line items so the totals box on
// the PDF always matches the rows above it.
func lineTotals(lines []service.InvoiceLine, cfg *config.PricingConfig) model.Totals {
	var material, install float64
	for _, l := range lines {
		if strings.EqualFold(l.Label, "Installation") {
			install += l.Amount
		} else {
			material += l.Amount
		}
	}
	subtotal := material + install
	vat := pricing.Round2(subtotal * cfg.VATRate / 100)

	return model.Totals{
		MaterialCost: material,
		InstallCost:  install,
		Subtotal:     subtotal,
		VAT:          vat,
		Total:        subtotal + vat,
		VATRate:      cfg.VATRate,
		Currency:     cfg.CurrencyCode,
	}
}

// moneyString formats an amount with thousands grouping and two decimals,
// prefixed with the currency symbol.
func moneyString(symbol string, v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := symbol + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
