package ingest

import (
	"strings"
	"time"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/config"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/gemini"
)

var invoiceFields = []string{
	"form_no",
	"serial_no",
	"invoice_no",
	"issued_date",
	"seller_name",
	"seller_tax_code",
}

// First format that parses wins, so DD/MM is tried before MM/DD.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
}

// Normalize reshapes a raw extraction into flat, not-yet-validated
// candidate records, one per line item in source order. For the
// invoice+items shape it also returns the projected invoice metadata;
// for the flat shape the invoice is nil.
func Normalize(raw gemini.RawExtraction) (invoice map[string]any, candidates []map[string]any) {
	if raw.Shape == config.ShapeFlatItems {
		candidates = make([]map[string]any, 0, len(raw.Items))
		for _, item := range raw.Items {
			merged := cloneMap(item)
			normalizeIssuedDate(merged)
			candidates = append(candidates, merged)
		}
		return nil, candidates
	}

	// Project the invoice object down to exactly the known fields:
	// absent ones default to null, unexpected keys are dropped.
	invoice = make(map[string]any, len(invoiceFields))
	for _, field := range invoiceFields {
		invoice[field] = raw.Invoice[field]
	}
	normalizeIssuedDate(invoice)

	candidates = make([]map[string]any, 0, len(raw.Items))
	for _, item := range raw.Items {
		merged := cloneMap(invoice)
		// Item fields win on key collision.
		for k, v := range item {
			merged[k] = v
		}
		normalizeIssuedDate(merged)
		candidates = append(candidates, merged)
	}
	return invoice, candidates
}

// normalizeIssuedDate canonicalizes issued_date to ISO YYYY-MM-DD. A
// present value that is not a string or matches no known format becomes
// null rather than failing the batch.
func normalizeIssuedDate(target map[string]any) {
	raw, present := target["issued_date"]
	if !present || raw == nil {
		return
	}

	value, ok := raw.(string)
	if !ok {
		target["issued_date"] = nil
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			target["issued_date"] = t.Format("2006-01-02")
			return
		}
	}
	target["issued_date"] = nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
