// Package model содержит доменные сущности сервиса космической бургерной.
package model

import "time"

// IngredientType описывает категорию ингредиента из каталога.
type IngredientType string

const (
	IngredientTypeBun   IngredientType = "bun"
	IngredientTypeSauce IngredientType = "sauce"
	IngredientTypeMain  IngredientType = "main"
)

// Ingredient описывает ингредиент каталога. Неизменяем после загрузки.
type Ingredient struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Type          IngredientType `json:"type"`
	Proteins      int            `json:"proteins"`
	Fat           int            `json:"fat"`
	Carbohydrates int            `json:"carbohydrates"`
	Calories      int            `json:"calories"`
	Price         int            `json:"price"`
	Image         string         `json:"image"`
	ImageMobile   string         `json:"image_mobile"`
	ImageLarge    string         `json:"image_large"`
}

// ConstructorEntry представляет ингредиент, положенный в собираемый бургер.
// InstanceID отличает два использования одного и того же ингредиента каталога.
type ConstructorEntry struct {
	Ingredient
	InstanceID string `json:"id"`
}

// OrderStatus описывает статус жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPending OrderStatus = "pending"
	OrderStatusDone    OrderStatus = "done"
)

// Order описывает заказ в том виде, в котором его возвращает сервер.
type Order struct {
	ID          string      `json:"_id"`
	Ingredients []string    `json:"ingredients"`
	Status      OrderStatus `json:"status"`
	Name        string      `json:"name"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
	Number      int         `json:"number"`
}

// User описывает профиль пользователя в ответах API.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FeedSnapshot содержит снимок общей ленты заказов и агрегатные счётчики.
type FeedSnapshot struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	TotalToday int     `json:"totalToday"`
}

// Account представляет зарегистрированного пользователя на стороне сервера.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
