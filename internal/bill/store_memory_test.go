package bill

import (
	"context"
	"encoding/json"
	"testing"
)

func mustBill(t *testing.T, fields map[string]any) Bill {
	t.Helper()
	b, err := FromCandidate(fields)
	if err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return b
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Create(ctx, mustBill(t, map[string]any{
		"invoice_no":   "INV-2024-001",
		"issued_date":  "2024-03-15",
		"item_name":    "A4 paper",
		"quantity":     json.Number("10"),
		"unit_price":   json.Number("45000.50"),
		"total_amount": json.Number("450005"),
		"vat_rate":     json.Number("10"),
		"vat_amount":   json.Number("45000.05"),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *got.InvoiceNo != "INV-2024-001" {
		t.Fatalf("unexpected invoice_no: %v", got.InvoiceNo)
	}
	if got.IssuedDate.Time.Format("2006-01-02") != "2024-03-15" {
		t.Fatalf("unexpected issued_date: %v", got.IssuedDate)
	}
	if got.UnitPrice.Decimal.String() != "45000.50" {
		t.Fatalf("decimal precision lost: %v", got.UnitPrice)
	}
	if got.VatAmount.Decimal.String() != "45000.05" {
		t.Fatalf("decimal precision lost: %v", got.VatAmount)
	}
	if got.FormNo != nil {
		t.Fatalf("expected null form_no, got %v", *got.FormNo)
	}
}

func TestMemoryStoreDuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fixture := map[string]any{"invoice_no": "INV-DUP"}
	if _, err := store.Create(ctx, mustBill(t, fixture)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, mustBill(t, fixture)); err != nil {
		t.Fatalf("duplicate bills must be permitted: %v", err)
	}

	count, _ := store.Count(ctx)
	if count != 2 {
		t.Fatalf("expected 2 bills, got %d", count)
	}
}

func TestMemoryStoreSearchCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, _ = store.Create(ctx, mustBill(t, map[string]any{"invoice_no": "INV-2024-001", "issued_date": "2024-03-15"}))
	_, _ = store.Create(ctx, mustBill(t, map[string]any{"invoice_no": "INV-2024-002", "issued_date": "2024-04-01"}))
	_, _ = store.Create(ctx, mustBill(t, map[string]any{"invoice_no": "OTHER"}))

	results, err := store.Search(ctx, "inv-2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	// Newest issued date first.
	if *results[0].InvoiceNo != "INV-2024-002" {
		t.Fatalf("expected newest first, got %v", *results[0].InvoiceNo)
	}
}

func TestMemoryStoreListPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		if _, err := store.Create(ctx, Bill{}); err != nil {
			t.Fatal(err)
		}
	}

	page1, _ := store.List(ctx, 1, 2)
	page3, _ := store.List(ctx, 3, 2)
	past, _ := store.List(ctx, 4, 2)

	if len(page1) != 2 || page1[0].ID != 1 || page1[1].ID != 2 {
		t.Fatalf("unexpected first page: %v", page1)
	}
	if len(page3) != 1 || page3[0].ID != 5 {
		t.Fatalf("unexpected last page: %v", page3)
	}
	if len(past) != 0 {
		t.Fatalf("expected empty page past the end, got %v", past)
	}
}

func TestMemoryStoreInsertBatchAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	bills := []Bill{{}, {}, {}}
	saved, err := store.InsertBatch(ctx, bills)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 3 || saved[2].ID != 3 {
		t.Fatalf("unexpected saved bills: %v", saved)
	}
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, _ := store.Create(ctx, mustBill(t, map[string]any{"unit": "ream"}))

	created.Unit = nil
	updated, err := store.Update(ctx, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Unit != nil {
		t.Fatalf("expected unit cleared, got %v", *updated.Unit)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
