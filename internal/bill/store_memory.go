package bill

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	bills  map[int64]Bill
	nextID int64

	// InsertErr, when set, makes the next write fail as a commit
	// failure would. Nothing is persisted in that case.
	InsertErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bills: make(map[int64]Bill), nextID: 1}
}

func (s *MemoryStore) InsertBatch(ctx context.Context, bills []Bill) ([]Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeInsertErr(); err != nil {
		return nil, apierr.Wrap(apierr.KindPersistence, err, "failed to save bills to database")
	}

	saved := make([]Bill, 0, len(bills))
	for _, b := range bills {
		b.ID = s.nextID
		s.nextID++
		s.bills[b.ID] = b
		saved = append(saved, b)
	}
	return saved, nil
}

func (s *MemoryStore) Create(ctx context.Context, b Bill) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeInsertErr(); err != nil {
		return Bill{}, apierr.Wrap(apierr.KindPersistence, err, "failed to create bill")
	}

	b.ID = s.nextID
	s.nextID++
	s.bills[b.ID] = b
	return b, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok {
		return Bill{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) Update(ctx context.Context, b Bill) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[b.ID]; !ok {
		return Bill{}, ErrNotFound
	}
	s.bills[b.ID] = b
	return b, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[id]; !ok {
		return ErrNotFound
	}
	delete(s.bills, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, page, limit int) ([]Bill, error) {
	all := s.sortedByID()

	offset := (page - 1) * limit
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MemoryStore) Search(ctx context.Context, term string) ([]Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(term)
	var matches []Bill
	for _, b := range s.bills {
		if b.InvoiceNo == nil {
			continue
		}
		if strings.Contains(strings.ToLower(*b.InvoiceNo), needle) {
			matches = append(matches, b)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].IssuedDate.Time.After(matches[j].IssuedDate.Time)
	})
	return matches, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.bills)), nil
}

func (s *MemoryStore) sortedByID() []Bill {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Bill, 0, len(s.bills))
	for _, b := range s.bills {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (s *MemoryStore) takeInsertErr() error {
	err := s.InsertErr
	s.InsertErr = nil
	return err
}
