package bill

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

var allowedFields = map[string]bool{
	"form_no":         true,
	"serial_no":       true,
	"invoice_no":      true,
	"issued_date":     true,
	"seller_name":     true,
	"seller_tax_code": true,
	"item_name":       true,
	"unit":            true,
	"quantity":        true,
	"unit_price":      true,
	"total_amount":    true,
	"vat_rate":        true,
	"vat_amount":      true,
}

// FromCandidate validates a flat candidate map against the bill shape
// and converts it. Unknown keys are rejected and every type mismatch is
// reported by field name.
func FromCandidate(candidate map[string]any) (Bill, error) {
	var bad []string
	for key := range candidate {
		if !allowedFields[key] {
			bad = append(bad, key)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return Bill{}, apierr.Newf(apierr.KindValidation, "unexpected field(s): %s", strings.Join(bad, ", "))
	}

	var b Bill
	for _, f := range []struct {
		name string
		dest **string
	}{
		{"form_no", &b.FormNo},
		{"serial_no", &b.SerialNo},
		{"invoice_no", &b.InvoiceNo},
		{"seller_name", &b.SellerName},
		{"seller_tax_code", &b.SellerTaxCode},
		{"item_name", &b.ItemName},
		{"unit", &b.Unit},
	} {
		s, ok := stringField(candidate[f.name])
		if !ok {
			bad = append(bad, f.name)
			continue
		}
		*f.dest = s
	}

	if d, ok := dateField(candidate["issued_date"]); ok {
		b.IssuedDate = d
	} else {
		bad = append(bad, "issued_date")
	}

	for _, f := range []struct {
		name string
		dest *decimal.NullDecimal
	}{
		{"quantity", &b.Quantity},
		{"unit_price", &b.UnitPrice},
		{"total_amount", &b.TotalAmount},
		{"vat_rate", &b.VatRate},
		{"vat_amount", &b.VatAmount},
	} {
		d, ok := decimalField(candidate[f.name])
		if !ok {
			bad = append(bad, f.name)
			continue
		}
		*f.dest = d
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return Bill{}, apierr.Newf(apierr.KindValidation, "invalid value for field(s): %s", strings.Join(bad, ", "))
	}
	return b, nil
}

// ApplyPatch copies only the keys present in fields onto b, validating
// each value. Absent keys are left untouched.
func ApplyPatch(b *Bill, fields map[string]any) error {
	patch, err := FromCandidate(fields)
	if err != nil {
		return err
	}

	for key := range fields {
		switch key {
		case "form_no":
			b.FormNo = patch.FormNo
		case "serial_no":
			b.SerialNo = patch.SerialNo
		case "invoice_no":
			b.InvoiceNo = patch.InvoiceNo
		case "issued_date":
			b.IssuedDate = patch.IssuedDate
		case "seller_name":
			b.SellerName = patch.SellerName
		case "seller_tax_code":
			b.SellerTaxCode = patch.SellerTaxCode
		case "item_name":
			b.ItemName = patch.ItemName
		case "unit":
			b.Unit = patch.Unit
		case "quantity":
			b.Quantity = patch.Quantity
		case "unit_price":
			b.UnitPrice = patch.UnitPrice
		case "total_amount":
			b.TotalAmount = patch.TotalAmount
		case "vat_rate":
			b.VatRate = patch.VatRate
		case "vat_amount":
			b.VatAmount = patch.VatAmount
		}
	}
	return nil
}

func stringField(v any) (*string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case string:
		return &val, true
	default:
		return nil, false
	}
}

func dateField(v any) (pgtype.Date, bool) {
	switch val := v.(type) {
	case nil:
		return pgtype.Date{}, true
	case string:
		t, err := time.Parse("2006-01-02", val)
		if err != nil {
			return pgtype.Date{}, false
		}
		return pgtype.Date{Time: t, Valid: true}, true
	default:
		return pgtype.Date{}, false
	}
}

// decimalField converts a JSON value into a fixed-point decimal rounded
// to two fraction digits. json.Number is the expected representation;
// numeric strings and floats from plain decodes are accepted too.
func decimalField(v any) (decimal.NullDecimal, bool) {
	var raw string
	switch val := v.(type) {
	case nil:
		return decimal.NullDecimal{}, true
	case json.Number:
		raw = val.String()
	case string:
		raw = val
	case float64:
		raw = fmt.Sprintf("%v", val)
	default:
		return decimal.NullDecimal{}, false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}, true
}
