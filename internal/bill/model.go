package bill

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Bill is one OCR-extracted invoice line item. Invoice-level fields are
// denormalized onto every row; all fields except ID are nullable.
// Monetary columns are NUMERIC(18,2) and vat_rate is NUMERIC(5,2), so
// values are rounded to two fraction digits before they are stored.
type Bill struct {
	ID            int64               `json:"id"`
	FormNo        *string             `json:"form_no"`
	SerialNo      *string             `json:"serial_no"`
	InvoiceNo     *string             `json:"invoice_no"`
	IssuedDate    pgtype.Date         `json:"issued_date"`
	SellerName    *string             `json:"seller_name"`
	SellerTaxCode *string             `json:"seller_tax_code"`
	ItemName      *string             `json:"item_name"`
	Unit          *string             `json:"unit"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	UnitPrice     decimal.NullDecimal `json:"unit_price"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`
	VatRate       decimal.NullDecimal `json:"vat_rate"`
	VatAmount     decimal.NullDecimal `json:"vat_amount"`
}
