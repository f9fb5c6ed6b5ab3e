package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BillingMode selects which quantity field of a draft is authoritative.
type BillingMode string

const (
	BillingSqm   BillingMode = "sqm"
	BillingBoard BillingMode = "board"
)

// NormalizeBillingMode coerces unknown values to the sqm default.
func NormalizeBillingMode(v string) BillingMode {
	if v == string(BillingBoard) {
		return BillingBoard
	}
	return BillingSqm
}

// Fulfillment is whether the contractor installs or only delivers.
type Fulfillment string

const (
	FulfillmentInstallation Fulfillment = "installation"
	FulfillmentDelivery     Fulfillment = "delivery"
)

// NormalizeFulfillment coerces unknown values to the installation default.
func NormalizeFulfillment(v string) Fulfillment {
	if v == string(FulfillmentDelivery) {
		return FulfillmentDelivery
	}
	return FulfillmentInstallation
}

// StringList accepts both a JSON array of strings and a single
// comma-separated string, normalizing to a slice. The browser sends arrays;
// links from the visualizer carry comma-separated query values.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = cleanList(arr)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected string or array of strings, got %s", string(data))
	}
	*l = SplitList(s)
	return nil
}

// SplitList splits a comma-separated value into a trimmed list, dropping
// empty entries.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// MergeLists unions two ordered lists, preserving first-seen order and
// dropping duplicates.
func MergeLists(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// QuoteDraft is the in-progress quote state. The browser owns it; every
// request carries a full copy and the server never keeps it beyond the
// per-session draft store.
type QuoteDraft struct {
	ProjectName   string      `json:"projectName"`
	ClientName    string      `json:"clientName"`
	Email         string      `json:"email"`
	BillingMode   BillingMode `json:"billingMode"`
	Sqm           float64     `json:"sqm"`
	Boards        int         `json:"boards"`
	Fulfillment   Fulfillment `json:"fulfillment"`
	SelectedSlugs StringList  `json:"selectedSlugs"`
	SelectedPaths StringList  `json:"selectedPaths"`
}

// Normalize coerces enum fields to valid values in place.
func (d *QuoteDraft) Normalize() {
	d.BillingMode = NormalizeBillingMode(string(d.BillingMode))
	d.Fulfillment = NormalizeFulfillment(string(d.Fulfillment))
}

// MergeSelections unions query-supplied initial selections into the draft.
func (d *QuoteDraft) MergeSelections(slugs, paths []string) {
	d.SelectedSlugs = MergeLists(d.SelectedSlugs, slugs)
	d.SelectedPaths = MergeLists(d.SelectedPaths, paths)
}

// QuotePayload is the submission body: a full draft plus the client-side
// estimate (non-authoritative, recomputed server-side) and a free-text note.
type QuotePayload struct {
	QuoteDraft
	Message  string  `json:"message"`
	Estimate float64 `json:"estimate"`
}

// Totals is derived from a draft and the pricing table, never mutated
// independently. Invariant: Subtotal = MaterialCost + InstallCost,
// VAT = round2(Subtotal × VATRate%), Total = Subtotal + VAT.
type Totals struct {
	MaterialCost float64 `json:"materialCost"`
	InstallCost  float64 `json:"installCost"`
	Subtotal     float64 `json:"subtotal"`
	VAT          float64 `json:"vat"`
	Total        float64 `json:"total"`
	VATRate      float64 `json:"vatRate"`
	Currency     string  `json:"currency"`
}

// QuoteRecord is a submitted quote kept for the sales team.
type QuoteRecord struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	Draft         QuoteDraft `json:"draft"`
	Totals        Totals     `json:"totals"`
	Status        string     `json:"status"` // pending, sent, failed
	ErrorMsg      string     `json:"error_msg,omitempty"`
	ArchiveURL    string     `json:"archive_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// QuoteRecord status constants
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Slugify lowercases s and replaces runs of non-alphanumerics with single
// hyphens, for attachment filenames like <client>-<project>.pdf.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // trim leading hyphens
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
