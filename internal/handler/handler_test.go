package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mpetrenko/stellar-burgers/internal/middleware"
	"github.com/mpetrenko/stellar-burgers/internal/model"
	"github.com/mpetrenko/stellar-burgers/internal/repository"
	"github.com/mpetrenko/stellar-burgers/internal/service"
)

type stubService struct {
	registerAccount *model.Account
	registerErr     error

	authAccount *model.Account
	authErr     error

	account    *model.Account
	accountErr error

	updatedAccount *model.Account
	updateErr      error

	refreshToken string
	refreshErr   error

	rotateAccountID int64
	rotateToken     string
	rotateErr       error

	logoutErr error

	ingredients []model.Ingredient

	createdOrder   *model.Order
	createOrderErr error
	gotAccountID   int64
	gotIngredients []string

	feed *model.FeedSnapshot

	order    *model.Order
	orderErr error

	userOrders []model.Order
}

func (s *stubService) RegisterAccount(ctx context.Context, email, password, name string) (*model.Account, error) {
	return s.registerAccount, s.registerErr
}

func (s *stubService) AuthenticateAccount(ctx context.Context, email, password string) (*model.Account, error) {
	return s.authAccount, s.authErr
}

func (s *stubService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.account, s.accountErr
}

func (s *stubService) UpdateAccount(ctx context.Context, id int64, email, name, password string) (*model.Account, error) {
	return s.updatedAccount, s.updateErr
}

func (s *stubService) IssueRefreshToken(ctx context.Context, accountID int64) (string, error) {
	return s.refreshToken, s.refreshErr
}

func (s *stubService) RotateRefreshToken(ctx context.Context, token string) (int64, string, error) {
	return s.rotateAccountID, s.rotateToken, s.rotateErr
}

func (s *stubService) Logout(ctx context.Context, token string) error {
	return s.logoutErr
}

func (s *stubService) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	return s.ingredients, nil
}

func (s *stubService) CreateOrder(ctx context.Context, accountID int64, ingredientIDs []string) (*model.Order, error) {
	s.gotAccountID = accountID
	s.gotIngredients = ingredientIDs
	return s.createdOrder, s.createOrderErr
}

func (s *stubService) GetFeed(ctx context.Context) (*model.FeedSnapshot, error) {
	return s.feed, nil
}

func (s *stubService) GetOrderByNumber(ctx context.Context, number int) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return s.userOrders, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{
		registerAccount: &model.Account{ID: 42, Email: "new@example.com", Name: "Newcomer"},
		refreshToken:    "refresh-1",
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "Newcomer",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp authResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.User == nil || resp.User.Email != "new@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.AccessToken == "" || resp.RefreshToken != "refresh-1" {
		t.Fatalf("token pair not issued: %+v", resp)
	}
}

func TestRegister_InvalidPayload(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(credentialsRequest{
		Email:    "not-an-email",
		Password: "password123",
		Name:     "Name",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrAccountExists}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "Dup",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("User already exists")) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{
		Email:    "test@example.com",
		Password: "wrong",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("email or password are incorrect")) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRefreshToken_Invalid(t *testing.T) {
	svc := &stubService{rotateErr: repository.ErrSessionNotFound}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(tokenRequest{Token: "ghost"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Token is invalid")) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGetIngredients(t *testing.T) {
	svc := &stubService{
		ingredients: []model.Ingredient{
			{ID: "643d69a5c3f7b9001cfa093c", Name: "Краторная булка N-200i", Type: model.IngredientTypeBun, Price: 1255},
		},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/ingredients", nil)
	rec := httptest.NewRecorder()

	h.GetIngredients(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ingredientsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 || resp.Data[0].ID != "643d69a5c3f7b9001cfa093c" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetFeed_NilOrdersNormalized(t *testing.T) {
	svc := &stubService{feed: &model.FeedSnapshot{Total: 10, TotalToday: 2}}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/all", nil)
	rec := httptest.NewRecorder()

	h.GetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Пустая лента сериализуется как [], а не null.
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"orders":[]`)) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGetOrderByNumber_NotFound(t *testing.T) {
	svc := &stubService{orderErr: repository.ErrOrderNotFound}
	h := newTestHandler(t, svc)

	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/orders/99999", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Отсутствующий заказ — это 200 с success:false, а не 404.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ordersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || len(resp.Orders) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateOrder_ThroughRouterWithToken(t *testing.T) {
	svc := &stubService{
		createdOrder: &model.Order{ID: "order1", Number: 12345, Name: "Краторная булка N-200i бургер", Status: model.OrderStatusCreated},
	}
	h := newTestHandler(t, svc)

	router := h.SetupRouter()
	token := h.authMiddleware.IssueAccessToken(42)

	body, _ := json.Marshal(createOrderRequest{
		Ingredients: []string{"bun-1", "s-1", "bun-1"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.gotAccountID != 42 {
		t.Fatalf("account id = %d, want 42", svc.gotAccountID)
	}
	if len(svc.gotIngredients) != 3 {
		t.Fatalf("ingredient ids = %v", svc.gotIngredients)
	}

	var resp orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Order.Number != 12345 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateOrder_WithoutToken(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	body, _ := json.Marshal(createOrderRequest{Ingredients: []string{"bun-1"}})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateOrder_UnknownIngredient(t *testing.T) {
	svc := &stubService{createOrderErr: repository.ErrUnknownIngredient}
	h := newTestHandler(t, svc)

	router := h.SetupRouter()
	token := h.authMiddleware.IssueAccessToken(42)

	body, _ := json.Marshal(createOrderRequest{Ingredients: []string{"ghost"}})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogout_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(tokenRequest{Token: "refresh-1"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Successful logout")) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGetUser_ThroughRouter(t *testing.T) {
	svc := &stubService{
		account: &model.Account{ID: 42, Email: "test@example.com", Name: "Test"},
	}
	h := newTestHandler(t, svc)

	router := h.SetupRouter()
	token := h.authMiddleware.IssueAccessToken(42)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.User.Email != "test@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
