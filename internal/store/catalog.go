package store

import (
	"context"
	"sync"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// CatalogClient описывает контракт загрузки каталога ингредиентов.
type CatalogClient interface {
	Ingredients(ctx context.Context) ([]model.Ingredient, error)
}

// Catalog кэширует полный список ингредиентов, загружаемый один раз с сервера.
type Catalog struct {
	mu     sync.Mutex
	client CatalogClient
	req    requestState
	items  []model.Ingredient
}

// NewCatalog создаёт пустое хранилище каталога.
func NewCatalog(client CatalogClient) *Catalog {
	return &Catalog{client: client}
}

// Fetch загружает каталог с сервера. Список сохраняется в порядке,
// присланном сервером. При ошибке ранее загруженный список не трогается.
func (c *Catalog) Fetch(ctx context.Context) error {
	c.mu.Lock()
	c.req.begin()
	c.mu.Unlock()

	items, err := c.client.Ingredients(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.req.fail(err.Error())
		return err
	}

	c.items = items
	c.req.succeed()
	return nil
}

// Items возвращает текущий список ингредиентов.
func (c *Catalog) Items() []model.Ingredient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Loading сообщает, выполняется ли запрос каталога.
func (c *Catalog) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.loading()
}

// Err возвращает сообщение последней ошибки загрузки каталога.
func (c *Catalog) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.lastErr
}

// Status возвращает фазу последнего запроса каталога.
func (c *Catalog) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.status
}
