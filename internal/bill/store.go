package bill

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("bill not found")

// Store defines all persistence operations over bills.
type Store interface {
	// InsertBatch persists every bill or none of them (one
	// transaction). The returned bills carry their assigned ids.
	InsertBatch(ctx context.Context, bills []Bill) ([]Bill, error)

	Create(ctx context.Context, b Bill) (Bill, error)
	GetByID(ctx context.Context, id int64) (Bill, error)
	Update(ctx context.Context, b Bill) (Bill, error)
	Delete(ctx context.Context, id int64) error

	// List returns one page ordered by id; page is 1-based.
	List(ctx context.Context, page, limit int) ([]Bill, error)

	// Search matches invoice_no by case-insensitive substring,
	// newest issued date first.
	Search(ctx context.Context, term string) ([]Bill, error)

	Count(ctx context.Context) (int64, error)
}
