package bill

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

const billColumns = `id, form_no, serial_no, invoice_no, issued_date, seller_name, seller_tax_code,
	item_name, unit, quantity, unit_price, total_amount, vat_rate, vat_amount`

const insertSQL = `
	INSERT INTO bills (
		form_no, serial_no, invoice_no, issued_date, seller_name, seller_tax_code,
		item_name, unit, quantity, unit_price, total_amount, vat_rate, vat_amount
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id
`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertBatch(ctx context.Context, bills []Bill) ([]Bill, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to open transaction")
	}
	defer tx.Rollback(ctx)

	saved := make([]Bill, 0, len(bills))
	for _, b := range bills {
		err := tx.QueryRow(ctx, insertSQL, insertArgs(b)...).Scan(&b.ID)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to save bills to database")
		}
		saved = append(saved, b)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to save bills to database")
	}
	return saved, nil
}

func (s *PostgresStore) Create(ctx context.Context, b Bill) (Bill, error) {
	err := s.db.QueryRow(ctx, insertSQL, insertArgs(b)...).Scan(&b.ID)
	if err != nil {
		return Bill{}, apierr.Wrap(apierr.KindPersistence, err, "failed to create bill")
	}
	return s.GetByID(ctx, b.ID)
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Bill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrNotFound
		}
		return Bill{}, apierr.Wrap(apierr.KindPersistence, err, "failed to fetch bill")
	}
	return b, nil
}

func (s *PostgresStore) Update(ctx context.Context, b Bill) (Bill, error) {
	cmd, err := s.db.Exec(ctx, `
		UPDATE bills
		SET form_no = $1,
		    serial_no = $2,
		    invoice_no = $3,
		    issued_date = $4,
		    seller_name = $5,
		    seller_tax_code = $6,
		    item_name = $7,
		    unit = $8,
		    quantity = $9,
		    unit_price = $10,
		    total_amount = $11,
		    vat_rate = $12,
		    vat_amount = $13
		WHERE id = $14
	`, append(insertArgs(b), b.ID)...)
	if err != nil {
		return Bill{}, apierr.Wrap(apierr.KindPersistence, err, "failed to update bill")
	}
	if cmd.RowsAffected() == 0 {
		return Bill{}, ErrNotFound
	}
	return s.GetByID(ctx, b.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return apierr.Wrap(apierr.KindPersistence, err, "failed to delete bill")
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, page, limit int) ([]Bill, error) {
	offset := (page - 1) * limit
	rows, err := s.db.Query(ctx, `
		SELECT `+billColumns+`
		FROM bills
		ORDER BY id ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to fetch bills")
	}
	defer rows.Close()
	return collectBills(rows)
}

func (s *PostgresStore) Search(ctx context.Context, term string) ([]Bill, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+billColumns+`
		FROM bills
		WHERE invoice_no ILIKE '%' || $1 || '%'
		ORDER BY issued_date DESC
	`, term)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to search bills")
	}
	defer rows.Close()
	return collectBills(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&count)
	if err != nil {
		return 0, apierr.Wrap(apierr.KindPersistence, err, "failed to get bills count")
	}
	return count, nil
}

func insertArgs(b Bill) []any {
	return []any{
		b.FormNo, b.SerialNo, b.InvoiceNo, b.IssuedDate, b.SellerName, b.SellerTaxCode,
		b.ItemName, b.Unit, b.Quantity, b.UnitPrice, b.TotalAmount, b.VatRate, b.VatAmount,
	}
}

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.FormNo, &b.SerialNo, &b.InvoiceNo, &b.IssuedDate, &b.SellerName, &b.SellerTaxCode,
		&b.ItemName, &b.Unit, &b.Quantity, &b.UnitPrice, &b.TotalAmount, &b.VatRate, &b.VatAmount,
	)
	return b, err
}

func collectBills(rows pgx.Rows) ([]Bill, error) {
	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to scan bill")
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to read bills")
	}
	return bills, nil
}
