package store

import (
	"context"
	"sync"

	"github.com/mpetrenko/stellar-burgers/internal/api"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// LookupClient описывает контракт поиска заказа по номеру.
type LookupClient interface {
	OrderByNumber(ctx context.Context, number int) (*api.OrdersResponse, error)
}

// Lookup хранит результат поиска одного заказа по его публичному номеру.
// Используется страницами заказа, открытыми по прямой ссылке.
type Lookup struct {
	mu     sync.Mutex
	client LookupClient
	req    requestState
	result *model.Order
}

// NewLookup создаёт пустое хранилище поиска.
func NewLookup(client LookupClient) *Lookup {
	return &Lookup{client: client}
}

// FetchByNumber ищет заказ по номеру. Начало запроса сбрасывает предыдущий
// результат. Пустой или неуспешный ответ означает «заказ не найден» и не
// считается ошибкой. Записи сервера сохраняются как есть, без валидации.
func (l *Lookup) FetchByNumber(ctx context.Context, number int) error {
	l.mu.Lock()
	l.req.begin()
	l.result = nil
	l.mu.Unlock()

	resp, err := l.client.OrderByNumber(ctx, number)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.req.fail(err.Error())
		return err
	}

	if resp.Success && len(resp.Orders) > 0 {
		order := resp.Orders[0]
		l.result = &order
	}
	l.req.succeed()
	return nil
}

// Result возвращает найденный заказ или nil, если заказа нет.
func (l *Lookup) Result() *model.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// Request сообщает, выполняется ли поиск заказа.
func (l *Lookup) Request() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.req.loading()
}

// Err возвращает сообщение последней ошибки поиска.
func (l *Lookup) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.req.lastErr
}
