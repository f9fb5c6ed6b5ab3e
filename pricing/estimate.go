// Package pricing computes quote totals. The same pure function serves both
// the live preview endpoint and the authoritative submission path, so the
// displayed estimate and the billed amount cannot drift apart.
package pricing

import (
	"fmt"
	"math"

	"github.com/VoltaiLTD/voltdesigns/config"
	"github.com/VoltaiLTD/voltdesigns/model"
)

// Estimate maps a draft and the rate table to Totals.
//
// The billing mode selects which quantity field is authoritative; the other
// is ignored. Negative quantities clamp to 0 rather than failing, which
// keeps the live preview resilient to partial input. Install cost applies
// only for installation fulfillment: quantity × per-unit rate, or the flat
// rate when no per-unit rate is configured.
func Estimate(d *model.QuoteDraft, cfg *config.PricingConfig) model.Totals {
	mode := model.NormalizeBillingMode(string(d.BillingMode))
	fulfillment := model.NormalizeFulfillment(string(d.Fulfillment))

	qty := Quantity(d)
	materialCost := qty * UnitPrice(mode, cfg)

	var installCost float64
	if fulfillment == model.FulfillmentInstallation {
		if rate := InstallRate(mode, cfg); rate > 0 {
			installCost = qty * rate
		} else {
			installCost = cfg.InstallFlatRate
		}
	}

	subtotal := materialCost + installCost
	vat := Round2(subtotal * cfg.VATRate / 100)

	return model.Totals{
		MaterialCost: materialCost,
		InstallCost:  installCost,
		Subtotal:     subtotal,
		VAT:          vat,
		Total:        subtotal + vat,
		VATRate:      cfg.VATRate,
		Currency:     cfg.CurrencyCode,
	}
}

// Quantity returns the authoritative quantity for the draft's billing mode,
// clamped to zero.
func Quantity(d *model.QuoteDraft) float64 {
	if model.NormalizeBillingMode(string(d.BillingMode)) == model.BillingBoard {
		return math.Max(0, float64(d.Boards))
	}
	return math.Max(0, d.Sqm)
}

// UnitPrice returns the material price per billing unit.
func UnitPrice(mode model.BillingMode, cfg *config.PricingConfig) float64 {
	if mode == model.BillingBoard {
		return cfg.PricePerBoard
	}
	return cfg.PricePerSqm
}

// InstallRate returns the per-unit installation rate for the billing mode.
func InstallRate(mode model.BillingMode, cfg *config.PricingConfig) float64 {
	if mode == model.BillingBoard {
		return cfg.InstallRatePerBoard
	}
	return cfg.InstallRatePerSqm
}

// QuantityLabel formats the draft quantity the way invoices display it:
// "<area> m²" or "<n> boards".
func QuantityLabel(d *model.QuoteDraft) string {
	if model.NormalizeBillingMode(string(d.BillingMode)) == model.BillingBoard {
		n := d.Boards
		if n < 0 {
			n = 0
		}
		return fmt.Sprintf("%d boards", n)
	}
	return fmt.Sprintf("%s m²", trimFloat(math.Max(0, d.Sqm)))
}

// Round2 rounds to two decimal places, the monetary precision used
// throughout the pipeline.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if s[len(s)-3:] == ".00" {
		return s[:len(s)-3]
	}
	return s
}
