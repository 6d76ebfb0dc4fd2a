package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReceiptService serves receipt reads and writes for authenticated users,
// with an optional read-through cache in front of the repository.
type ReceiptService struct {
	receipts ReceiptRepository
	cache    *ReceiptCache // nil disables caching
}

func NewReceiptService(receipts ReceiptRepository, cache *ReceiptCache) *ReceiptService {
	return &ReceiptService{receipts: receipts, cache: cache}
}

// List returns the user's receipts, newest first.
func (s *ReceiptService) List(ctx context.Context, userID string) ([]Receipt, error) {
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx, userID); ok {
			return items, nil
		}
	}
	items, err := s.receipts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, items)
	}
	return items, nil
}

// Create stores a new receipt for the user and drops their cached listing.
func (s *ReceiptService) Create(ctx context.Context, userID, store string, total float64, date time.Time) (*Receipt, error) {
	receipt := &Receipt{
		ID:     uuid.NewString(),
		UserID: userID,
		Store:  store,
		Total:  total,
		Date:   date,
	}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return receipt, nil
}
