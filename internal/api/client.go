// Package api предоставляет клиент REST API космической бургерной.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// ErrTokenExpired возвращается, когда сервер отверг access-токен как просроченный.
var ErrTokenExpired = errors.New("access token expired")

// TokenSource описывает контракт хранилища пары токенов авторизации.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetPair(access, refresh string) error
	Clear() error
}

// Client инкапсулирует HTTP-взаимодействие с API бургерной.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient создаёт HTTP-клиент для обращения к API по указанному адресу.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		tokens: tokens,
	}
}

// IngredientsResponse описывает ответ со списком ингредиентов каталога.
type IngredientsResponse struct {
	Success bool               `json:"success"`
	Data    []model.Ingredient `json:"data"`
}

// OrderResponse описывает подтверждение созданного заказа.
type OrderResponse struct {
	Success bool        `json:"success"`
	Name    string      `json:"name"`
	Order   model.Order `json:"order"`
}

// FeedResponse описывает снимок общей ленты заказов.
type FeedResponse struct {
	Success    bool          `json:"success"`
	Orders     []model.Order `json:"orders"`
	Total      int           `json:"total"`
	TotalToday int           `json:"totalToday"`
}

// OrdersResponse описывает ответ со списком заказов и признаком успеха.
type OrdersResponse struct {
	Success bool          `json:"success"`
	Orders  []model.Order `json:"orders"`
}

// AuthResponse описывает ответ операций аутентификации.
type AuthResponse struct {
	Success      bool       `json:"success"`
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// UserResponse описывает ответ с профилем пользователя.
type UserResponse struct {
	Success bool       `json:"success"`
	User    model.User `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserUpdate содержит изменяемые поля профиля. Пустые поля не отправляются.
type UserUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Ingredients запрашивает полный каталог ингредиентов.
func (c *Client) Ingredients(ctx context.Context) ([]model.Ingredient, error) {
	var resp IngredientsResponse
	if err := c.do(ctx, http.MethodGet, "/api/ingredients", nil, &resp, false); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("ingredients request rejected")
	}
	return resp.Data, nil
}

// CreateOrder отправляет собранный бургер на оформление и возвращает подтверждение.
func (c *Client) CreateOrder(ctx context.Context, ingredientIDs []string) (*model.Order, error) {
	body := struct {
		Ingredients []string `json:"ingredients"`
	}{Ingredients: ingredientIDs}

	var resp OrderResponse
	if err := c.doAuthorized(ctx, http.MethodPost, "/api/orders", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("order request rejected")
	}

	order := resp.Order
	if order.Name == "" {
		order.Name = resp.Name
	}
	return &order, nil
}

// Feed запрашивает общую ленту заказов со счётчиками.
func (c *Client) Feed(ctx context.Context) (*model.FeedSnapshot, error) {
	var resp FeedResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/all", nil, &resp, false); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("feed request rejected")
	}
	return &model.FeedSnapshot{
		Orders:     resp.Orders,
		Total:      resp.Total,
		TotalToday: resp.TotalToday,
	}, nil
}

// OrderByNumber запрашивает заказ по его публичному номеру.
// Ответ возвращается как есть: отсутствие заказа не считается ошибкой.
func (c *Client) OrderByNumber(ctx context.Context, number int) (*OrdersResponse, error) {
	var resp OrdersResponse
	path := fmt.Sprintf("/api/orders/%d", number)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserOrders запрашивает историю заказов текущего пользователя.
func (c *Client) UserOrders(ctx context.Context) ([]model.Order, error) {
	var resp OrdersResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/orders", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("orders request rejected")
	}
	return resp.Orders, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register регистрирует нового пользователя и сохраняет выданную пару токенов.
func (c *Client) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	return c.auth(ctx, "/api/auth/register", credentialsRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
}

// Login выполняет вход и сохраняет выданную пару токенов.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.auth(ctx, "/api/auth/login", credentialsRequest{
		Email:    email,
		Password: password,
	})
}

func (c *Client) auth(ctx context.Context, path string, req credentialsRequest) (*model.User, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp, false); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("auth request rejected")
	}
	if err := c.tokens.SetPair(resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return &resp.User, nil
}

// Logout завершает сессию на сервере и очищает локальные токены.
func (c *Client) Logout(ctx context.Context) error {
	body := struct {
		Token string `json:"token"`
	}{Token: c.tokens.RefreshToken()}

	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", body, &resp, false); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("logout request rejected")
	}
	return c.tokens.Clear()
}

// Refresh обменивает refresh-токен на новую пару токенов.
func (c *Client) Refresh(ctx context.Context) error {
	body := struct {
		Token string `json:"token"`
	}{Token: c.tokens.RefreshToken()}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", body, &resp, false); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("token refresh rejected")
	}
	return c.tokens.SetPair(resp.AccessToken, resp.RefreshToken)
}

// User запрашивает профиль текущего пользователя.
func (c *Client) User(ctx context.Context) (*model.User, error) {
	var resp UserResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/auth/user", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("user request rejected")
	}
	return &resp.User, nil
}

// UpdateUser изменяет профиль текущего пользователя.
func (c *Client) UpdateUser(ctx context.Context, update UserUpdate) (*model.User, error) {
	var resp UserResponse
	if err := c.doAuthorized(ctx, http.MethodPatch, "/api/auth/user", update, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("user update rejected")
	}
	return &resp.User, nil
}

// doAuthorized выполняет запрос с access-токеном. Если сервер ответил, что
// токен просрочен, пара токенов обновляется по refresh-токену и запрос
// повторяется ровно один раз.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body, out any) error {
	err := c.do(ctx, method, path, body, out, true)
	if !errors.Is(err, ErrTokenExpired) {
		return err
	}

	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh tokens: %w", err)
	}

	return c.do(ctx, method, path, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authorized bool) error {
	if c == nil || c.baseURL == "" {
		return errors.New("api client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if authorized && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return ErrTokenExpired
	}

	if resp.StatusCode != http.StatusOK {
		var msg messageResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&msg); decodeErr == nil && msg.Message != "" {
			return fmt.Errorf("server rejected request: %s", msg.Message)
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
