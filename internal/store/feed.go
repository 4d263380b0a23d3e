package store

import (
	"context"
	"sync"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// FeedClient описывает контракт загрузки общей ленты заказов.
type FeedClient interface {
	Feed(ctx context.Context) (*model.FeedSnapshot, error)
}

// Feed хранит последний снимок общей ленты заказов. Каждое успешное
// обновление замещает снимок целиком, слияния не происходит.
type Feed struct {
	mu     sync.Mutex
	client FeedClient
	req    requestState

	orders     []model.Order
	total      int
	totalToday int
}

// NewFeed создаёт пустое хранилище ленты.
func NewFeed(client FeedClient) *Feed {
	return &Feed{client: client}
}

// Fetch обновляет снимок ленты. Пока запрос выполняется и при его ошибке
// прежние заказы и счётчики остаются нетронутыми.
func (f *Feed) Fetch(ctx context.Context) error {
	f.mu.Lock()
	f.req.begin()
	f.mu.Unlock()

	snapshot, err := f.client.Feed(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.req.fail(err.Error())
		return err
	}

	f.orders = snapshot.Orders
	f.total = snapshot.Total
	f.totalToday = snapshot.TotalToday
	f.req.succeed()
	return nil
}

// State возвращает текущий снимок ленты без изменений.
func (f *Feed) State() model.FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.FeedSnapshot{
		Orders:     f.orders,
		Total:      f.total,
		TotalToday: f.totalToday,
	}
}

// Loading сообщает, выполняется ли обновление ленты.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req.loading()
}

// Err возвращает сообщение последней ошибки обновления ленты.
func (f *Feed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req.lastErr
}
