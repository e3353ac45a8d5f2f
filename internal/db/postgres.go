package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("schema init failed: %w", err)
	}

	return pool, nil
}

// initSchema creates the bills table. Every field except id is nullable
// and nothing carries a uniqueness constraint: re-running OCR on the
// same image is allowed to create duplicate rows.
func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	billsSQL := `
		CREATE TABLE IF NOT EXISTS bills (
			id BIGSERIAL PRIMARY KEY,
			form_no TEXT NULL,
			serial_no TEXT NULL,
			invoice_no TEXT NULL,
			issued_date DATE NULL,
			seller_name TEXT NULL,
			seller_tax_code TEXT NULL,
			item_name TEXT NULL,
			unit TEXT NULL,
			quantity NUMERIC(18,2) NULL,
			unit_price NUMERIC(18,2) NULL,
			total_amount NUMERIC(18,2) NULL,
			vat_rate NUMERIC(5,2) NULL,
			vat_amount NUMERIC(18,2) NULL
		)
	`
	_, err := pool.Exec(ctx, billsSQL)
	return err
}
