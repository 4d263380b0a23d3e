// Package handler содержит HTTP-обработчики API сервиса бургерной.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mpetrenko/stellar-burgers/internal/middleware"
	"github.com/mpetrenko/stellar-burgers/internal/model"
	"github.com/mpetrenko/stellar-burgers/internal/repository"
	"github.com/mpetrenko/stellar-burgers/internal/service"
	"github.com/mpetrenko/stellar-burgers/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterAccount(ctx context.Context, email, password, name string) (*model.Account, error)
	AuthenticateAccount(ctx context.Context, email, password string) (*model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	UpdateAccount(ctx context.Context, id int64, email, name, password string) (*model.Account, error)
	IssueRefreshToken(ctx context.Context, accountID int64) (string, error)
	RotateRefreshToken(ctx context.Context, token string) (int64, string, error)
	Logout(ctx context.Context, token string) error
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	CreateOrder(ctx context.Context, accountID int64, ingredientIDs []string) (*model.Order, error)
	GetFeed(ctx context.Context) (*model.FeedSnapshot, error)
	GetOrderByNumber(ctx context.Context, number int) (*model.Order, error)
	GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
}

// Handler реализует HTTP-обработчики API сервиса бургерной.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Success      bool        `json:"success"`
	User         *model.User `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (h *Handler) writeAuthResponse(w http.ResponseWriter, r *http.Request, account *model.Account) {
	refresh, err := h.service.IssueRefreshToken(r.Context(), account.ID)
	if err != nil {
		h.logger.Error("issue refresh token error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:      true,
		User:         &model.User{Email: account.Email, Name: account.Name},
		AccessToken:  h.authMiddleware.IssueAccessToken(account.ID),
		RefreshToken: refresh,
	})
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if !validation.IsValidEmail(req.Email) || !validation.IsValidPassword(req.Password) || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Email, password and name are required fields")
		return
	}

	account, err := h.service.RegisterAccount(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		h.logger.Error("register account error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeAuthResponse(w, r, account)
}

// Login выполняет аутентификацию пользователя и выдачу пары токенов.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	account, err := h.service.AuthenticateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "email or password are incorrect")
			return
		}
		h.logger.Error("login error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeAuthResponse(w, r, account)
}

type tokenRequest struct {
	Token string `json:"token"`
}

// RefreshToken обменивает refresh-токен на новую пару токенов.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	accountID, refresh, err := h.service.RotateRefreshToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			writeError(w, http.StatusForbidden, "Token is invalid")
			return
		}
		h.logger.Error("rotate refresh token error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:      true,
		AccessToken:  h.authMiddleware.IssueAccessToken(accountID),
		RefreshToken: refresh,
	})
}

// Logout завершает сессию, отзывая refresh-токен.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if err := h.service.Logout(r.Context(), req.Token); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			writeError(w, http.StatusForbidden, "Token is invalid")
			return
		}
		h.logger.Error("logout error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Successful logout",
	})
}

type userResponse struct {
	Success bool       `json:"success"`
	User    model.User `json:"user"`
}

// GetUser возвращает профиль текущего пользователя.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("get account error", zap.Error(err), zap.Int64("accountID", accountID))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Success: true,
		User:    model.User{Email: account.Email, Name: account.Name},
	})
}

// UpdateUser изменяет профиль текущего пользователя.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if req.Email != "" && !validation.IsValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if req.Password != "" && !validation.IsValidPassword(req.Password) {
		writeError(w, http.StatusBadRequest, "password is too short")
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), accountID, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			writeError(w, http.StatusConflict, "User with such email already exists")
			return
		}
		h.logger.Error("update account error", zap.Error(err), zap.Int64("accountID", accountID))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Success: true,
		User:    model.User{Email: account.Email, Name: account.Name},
	})
}

type ingredientsResponse struct {
	Success bool               `json:"success"`
	Data    []model.Ingredient `json:"data"`
}

// GetIngredients возвращает каталог ингредиентов.
func (h *Handler) GetIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.service.ListIngredients(r.Context())
	if err != nil {
		h.logger.Error("list ingredients error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if ingredients == nil {
		ingredients = []model.Ingredient{}
	}

	writeJSON(w, http.StatusOK, ingredientsResponse{Success: true, Data: ingredients})
}

type createOrderRequest struct {
	Ingredients []string `json:"ingredients"`
}

type orderResponse struct {
	Success bool        `json:"success"`
	Name    string      `json:"name"`
	Order   model.Order `json:"order"`
}

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), accountID, req.Ingredients)
	if err != nil {
		if errors.Is(err, service.ErrEmptyOrder) || errors.Is(err, repository.ErrUnknownIngredient) {
			writeError(w, http.StatusBadRequest, "Ingredient ids must be provided")
			return
		}
		h.logger.Error("create order error", zap.Error(err), zap.Int64("accountID", accountID))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		Success: true,
		Name:    order.Name,
		Order:   *order,
	})
}

type feedResponse struct {
	Success    bool          `json:"success"`
	Orders     []model.Order `json:"orders"`
	Total      int           `json:"total"`
	TotalToday int           `json:"totalToday"`
}

// GetFeed возвращает общую ленту заказов со счётчиками.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.GetFeed(r.Context())
	if err != nil {
		h.logger.Error("get feed error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	orders := feed.Orders
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, feedResponse{
		Success:    true,
		Orders:     orders,
		Total:      feed.Total,
		TotalToday: feed.TotalToday,
	})
}

type ordersResponse struct {
	Success bool          `json:"success"`
	Orders  []model.Order `json:"orders"`
}

// GetOrderByNumber возвращает заказ по его публичному номеру.
// Отсутствие заказа не является ошибкой: клиент получает пустой список.
func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	order, err := h.service.GetOrderByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			writeJSON(w, http.StatusOK, ordersResponse{Success: false, Orders: []model.Order{}})
			return
		}
		h.logger.Error("get order error", zap.Error(err), zap.Int("number", number))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: []model.Order{*order}})
}

// GetUserOrders возвращает историю заказов текущего пользователя.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	orders, err := h.service.GetOrdersByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("get user orders error", zap.Error(err), zap.Int64("accountID", accountID))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: orders})
}
