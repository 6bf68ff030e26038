package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
)

type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.Balance
}

var _ port.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.Balance)}
}

func (c *Cache) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[username]
	if !ok {
		return nil, nil
	}
	copyBal := *b
	return &copyBal, nil
}

func (c *Cache) SetBalance(ctx context.Context, b *domain.Balance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copyBal := *b
	c.store[b.Username] = &copyBal
	return nil
}

func (c *Cache) InvalidateBalance(ctx context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, username)
	return nil
}
