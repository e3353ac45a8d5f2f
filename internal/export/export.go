package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"
)

const sheetName = "Bills"

var columns = []string{
	"ID",
	"Form No",
	"Serial No",
	"Invoice No",
	"Issued Date",
	"Seller Name",
	"Seller Tax Code",
	"Item Name",
	"Unit",
	"Quantity",
	"Unit Price",
	"Total Amount",
	"VAT Rate",
	"VAT Amount",
}

type Service struct {
	store bill.Store
}

func NewService(store bill.Store) *Service {
	return &Service{store: store}
}

// BuildWorkbook renders every stored bill into an xlsx workbook, one
// row per bill ordered by id, with a header row.
func (s *Service) BuildWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	bills, err := s.allBills(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, b := range bills {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, billRow(b)); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// allBills pages through the store; List caps limit at 100 per page.
func (s *Service) allBills(ctx context.Context) ([]bill.Bill, error) {
	var all []bill.Bill
	for page := 1; ; page++ {
		bills, err := s.store.List(ctx, page, 100)
		if err != nil {
			return nil, err
		}
		all = append(all, bills...)
		if len(bills) < 100 {
			return all, nil
		}
	}
}

func billRow(b bill.Bill) *[]any {
	row := []any{
		b.ID,
		cellString(b.FormNo),
		cellString(b.SerialNo),
		cellString(b.InvoiceNo),
		cellDate(b),
		cellString(b.SellerName),
		cellString(b.SellerTaxCode),
		cellString(b.ItemName),
		cellString(b.Unit),
		cellDecimal(b.Quantity),
		cellDecimal(b.UnitPrice),
		cellDecimal(b.TotalAmount),
		cellDecimal(b.VatRate),
		cellDecimal(b.VatAmount),
	}
	return &row
}

func cellString(v *string) any {
	if v == nil {
		return ""
	}
	return *v
}

func cellDate(b bill.Bill) any {
	if !b.IssuedDate.Valid {
		return ""
	}
	return b.IssuedDate.Time.Format("2006-01-02")
}

func cellDecimal(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	f, _ := v.Decimal.Float64()
	return f
}

// Filename returns the timestamped attachment name for an export.
func Filename(timestamp string) string {
	return fmt.Sprintf("bills-%s.xlsx", timestamp)
}
