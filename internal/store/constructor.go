package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// ErrNoBun возвращается при попытке оформить заказ без выбранной булки.
var ErrNoBun = errors.New("constructor has no bun")

// OrderClient описывает контракт оформления заказа.
type OrderClient interface {
	CreateOrder(ctx context.Context, ingredientIDs []string) (*model.Order, error)
}

// Constructor хранит собираемый бургер: не более одной булки и упорядоченный
// список начинок. Один и тот же ингредиент каталога может попасть в бургер
// несколько раз, каждое вхождение получает собственный идентификатор.
type Constructor struct {
	mu     sync.Mutex
	client OrderClient

	bun         *model.ConstructorEntry
	ingredients []model.ConstructorEntry

	req          requestState
	orderRequest bool
	modal        *model.Order
}

// NewConstructor создаёт пустой конструктор.
func NewConstructor(client OrderClient) *Constructor {
	return &Constructor{client: client}
}

// Add кладёт ингредиент в конструктор. Булка всегда замещает предыдущую,
// остальные категории добавляются в конец списка начинок.
func (c *Constructor) Add(ing model.Ingredient) model.ConstructorEntry {
	entry := model.ConstructorEntry{
		Ingredient: ing,
		InstanceID: uuid.NewString(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ing.Type == model.IngredientTypeBun {
		c.bun = &entry
	} else {
		c.ingredients = append(c.ingredients, entry)
	}
	return entry
}

// Remove убирает начинку по идентификатору вхождения.
// Отсутствие совпадения не является ошибкой, состояние не меняется.
func (c *Constructor) Remove(instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.ingredients {
		if entry.InstanceID == instanceID {
			c.ingredients = append(c.ingredients[:i], c.ingredients[i+1:]...)
			return
		}
	}
}

// MoveUp меняет начинку местами с соседом выше. Индекс за пределами списка
// или первая позиция оставляют состояние без изменений.
func (c *Constructor) MoveUp(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index <= 0 || index >= len(c.ingredients) {
		return
	}
	c.ingredients[index-1], c.ingredients[index] = c.ingredients[index], c.ingredients[index-1]
}

// MoveDown меняет начинку местами с соседом ниже. Индекс за пределами списка
// или последняя позиция оставляют состояние без изменений.
func (c *Constructor) MoveDown(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.ingredients)-1 {
		return
	}
	c.ingredients[index], c.ingredients[index+1] = c.ingredients[index+1], c.ingredients[index]
}

// Submit оформляет собранный бургер: булка, начинки по порядку и снова булка.
// Успешный заказ сохраняет подтверждение для модального окна и атомарно
// очищает конструктор. При ошибке содержимое конструктора не трогается.
func (c *Constructor) Submit(ctx context.Context) (*model.Order, error) {
	c.mu.Lock()
	if c.bun == nil {
		c.mu.Unlock()
		return nil, ErrNoBun
	}

	ids := make([]string, 0, len(c.ingredients)+2)
	ids = append(ids, c.bun.ID)
	for _, entry := range c.ingredients {
		ids = append(ids, entry.ID)
	}
	ids = append(ids, c.bun.ID)

	c.req.begin()
	c.orderRequest = true
	c.mu.Unlock()

	order, err := c.client.CreateOrder(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.orderRequest = false

	if err != nil {
		c.req.fail(err.Error())
		return nil, err
	}

	c.modal = order
	c.bun = nil
	c.ingredients = nil
	c.req.succeed()
	return order, nil
}

// ResetModal закрывает модальное окно подтверждения заказа.
func (c *Constructor) ResetModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = nil
}

// SetRequest напрямую выставляет флаг выполняющегося заказа.
// Используется UI для блокировки повторной отправки.
func (c *Constructor) SetRequest(flag bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderRequest = flag
}

// Bun возвращает текущую булку или nil.
func (c *Constructor) Bun() *model.ConstructorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bun
}

// Ingredients возвращает начинки в порядке сборки.
func (c *Constructor) Ingredients() []model.ConstructorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ingredients
}

// Modal возвращает подтверждение последнего заказа или nil.
func (c *Constructor) Modal() *model.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// OrderRequest сообщает, выполняется ли оформление заказа.
func (c *Constructor) OrderRequest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderRequest
}

// Loading сообщает, выполняется ли запрос оформления заказа.
func (c *Constructor) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.loading()
}

// Err возвращает сообщение последней ошибки оформления заказа.
func (c *Constructor) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.lastErr
}
