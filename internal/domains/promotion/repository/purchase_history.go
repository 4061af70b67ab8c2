package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryPurchaseHistory là tập user đã từng mua hàng
type MemoryPurchaseHistory struct {
	mu     sync.RWMutex
	buyers map[string]struct{}
}

// NewMemoryPurchaseHistory seeds the history with known buyers
func NewMemoryPurchaseHistory(userIDs ...string) *MemoryPurchaseHistory {
	h := &MemoryPurchaseHistory{buyers: make(map[string]struct{}, len(userIDs))}
	for _, id := range userIDs {
		h.buyers[id] = struct{}{}
	}
	return h
}

func (h *MemoryPurchaseHistory) HasPurchased(_ context.Context, userID string) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.buyers[userID]
	return ok, nil
}

// RecordPurchase marks userID as a returning customer
func (h *MemoryPurchaseHistory) RecordPurchase(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buyers[userID] = struct{}{}
}

// PostgresPurchaseHistory đọc bảng purchases do order service ghi
type PostgresPurchaseHistory struct {
	db *pgxpool.Pool
}

func NewPostgresPurchaseHistory(db *pgxpool.Pool) *PostgresPurchaseHistory {
	return &PostgresPurchaseHistory{db: db}
}

func (h *PostgresPurchaseHistory) HasPurchased(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := h.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase history: %w", err)
	}
	return exists, nil
}

var (
	_ PurchaseHistory = (*MemoryPurchaseHistory)(nil)
	_ PurchaseHistory = (*PostgresPurchaseHistory)(nil)
)
