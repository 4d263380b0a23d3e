package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mpetrenko/stellar-burgers/internal/api"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

type stubUserClient struct {
	registerUser *model.User
	registerErr  error

	loginUser *model.User
	loginErr  error

	logoutErr error

	profile    *model.User
	profileErr error

	updated   *model.User
	updateErr error
	gotUpdate api.UserUpdate

	orders    []model.Order
	ordersErr error
}

func (s *stubUserClient) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubUserClient) Login(ctx context.Context, email, password string) (*model.User, error) {
	return s.loginUser, s.loginErr
}

func (s *stubUserClient) Logout(ctx context.Context) error {
	return s.logoutErr
}

func (s *stubUserClient) User(ctx context.Context) (*model.User, error) {
	return s.profile, s.profileErr
}

func (s *stubUserClient) UpdateUser(ctx context.Context, update api.UserUpdate) (*model.User, error) {
	s.gotUpdate = update
	return s.updated, s.updateErr
}

func (s *stubUserClient) UserOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders, s.ordersErr
}

func TestUserLogin_Success(t *testing.T) {
	client := &stubUserClient{loginUser: &model.User{Email: "test@example.com", Name: "Test User"}}
	u := NewUser(client)

	if err := u.Login(context.Background(), "test@example.com", "password123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if !u.IsAuthenticated() {
		t.Fatalf("user must be authenticated after login")
	}
	if !u.IsAuthChecked() {
		t.Fatalf("auth check must be marked done")
	}
	if u.LoginRequest() {
		t.Fatalf("login request flag must be cleared")
	}
	profile := u.Profile()
	if profile == nil || profile.Email != "test@example.com" {
		t.Fatalf("profile not stored: %+v", profile)
	}
}

func TestUserLogin_Failure(t *testing.T) {
	client := &stubUserClient{loginErr: errors.New("email or password are incorrect")}
	u := NewUser(client)

	if err := u.Login(context.Background(), "test@example.com", "wrong"); err == nil {
		t.Fatalf("expected login error")
	}

	if u.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}
	// Попытка входа состоялась, проверка аутентификации считается пройденной.
	if !u.IsAuthChecked() {
		t.Fatalf("auth check must be marked done even after failure")
	}
	if u.Err() != "email or password are incorrect" {
		t.Fatalf("error = %q", u.Err())
	}
	if u.LoginRequest() {
		t.Fatalf("login request flag must be cleared")
	}
}

func TestUserRegister_Success(t *testing.T) {
	client := &stubUserClient{registerUser: &model.User{Email: "new@example.com", Name: "Newcomer"}}
	u := NewUser(client)

	if err := u.Register(context.Background(), "new@example.com", "password123", "Newcomer"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if u.Profile() == nil || u.Profile().Name != "Newcomer" {
		t.Fatalf("profile not stored after registration: %+v", u.Profile())
	}
	if u.Request() {
		t.Fatalf("request flag must be cleared")
	}
	if u.Err() != "" {
		t.Fatalf("error must be empty, got %q", u.Err())
	}
}

func TestUserRegister_Failure(t *testing.T) {
	client := &stubUserClient{registerErr: errors.New("User already exists")}
	u := NewUser(client)

	if err := u.Register(context.Background(), "dup@example.com", "password123", "Dup"); err == nil {
		t.Fatalf("expected registration error")
	}

	if u.Profile() != nil {
		t.Fatalf("failed registration must not store a profile")
	}
	if u.Err() != "User already exists" {
		t.Fatalf("error = %q", u.Err())
	}
}

func TestUserFetchProfile_FailureLeavesStateInert(t *testing.T) {
	client := &stubUserClient{loginUser: &model.User{Email: "test@example.com"}}
	u := NewUser(client)

	if err := u.Login(context.Background(), "test@example.com", "password123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	client.profileErr = errors.New("jwt expired")
	if err := u.FetchProfile(context.Background()); err == nil {
		t.Fatalf("expected profile fetch error")
	}

	// Неудачная загрузка профиля не роняет активную сессию.
	if !u.IsAuthenticated() {
		t.Fatalf("failed profile fetch must not drop authentication")
	}
	if u.Profile() == nil {
		t.Fatalf("failed profile fetch must keep the cached profile")
	}
	if u.Err() != "" {
		t.Fatalf("failed profile fetch must not record an error, got %q", u.Err())
	}
}

func TestUserUpdateProfile_StoredSeparately(t *testing.T) {
	client := &stubUserClient{
		loginUser: &model.User{Email: "old@example.com", Name: "Old Name"},
		updated:   &model.User{Email: "new@example.com", Name: "New Name"},
	}
	u := NewUser(client)

	if err := u.Login(context.Background(), "old@example.com", "password123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if err := u.UpdateProfile(context.Background(), api.UserUpdate{Name: "New Name", Email: "new@example.com"}); err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}

	if client.gotUpdate.Name != "New Name" || client.gotUpdate.Email != "new@example.com" {
		t.Fatalf("update payload = %+v", client.gotUpdate)
	}
	if u.Response() == nil || u.Response().Name != "New Name" {
		t.Fatalf("update response not stored: %+v", u.Response())
	}
	// Профиль сессии не замещается ответом обновления.
	if u.Profile() == nil || u.Profile().Name != "Old Name" {
		t.Fatalf("session profile must stay intact: %+v", u.Profile())
	}
}

func TestUserFetchOrders(t *testing.T) {
	client := &stubUserClient{
		orders: []model.Order{
			{ID: "order1", Number: 100, Status: model.OrderStatusDone},
			{ID: "order2", Number: 101, Status: model.OrderStatusPending},
		},
	}
	u := NewUser(client)

	if err := u.FetchOrders(context.Background()); err != nil {
		t.Fatalf("FetchOrders error: %v", err)
	}

	orders := u.Orders()
	if len(orders) != 2 || orders[0].Number != 100 {
		t.Fatalf("unexpected order history: %+v", orders)
	}
}

func TestUserLogout_ClearsSessionKeepsCaches(t *testing.T) {
	client := &stubUserClient{
		loginUser: &model.User{Email: "test@example.com", Name: "Test"},
		updated:   &model.User{Email: "test@example.com", Name: "Updated"},
		orders:    []model.Order{{ID: "order1", Number: 100}},
	}
	u := NewUser(client)

	if err := u.Login(context.Background(), "test@example.com", "password123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if err := u.UpdateProfile(context.Background(), api.UserUpdate{Name: "Updated"}); err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if err := u.FetchOrders(context.Background()); err != nil {
		t.Fatalf("FetchOrders error: %v", err)
	}

	if err := u.Logout(context.Background()); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	if u.IsAuthenticated() {
		t.Fatalf("logout must drop authentication")
	}
	if u.Profile() != nil {
		t.Fatalf("logout must clear the profile")
	}
	if u.Err() != "" {
		t.Fatalf("logout must clear the last error, got %q", u.Err())
	}
	// История заказов и последний ответ обновления переживают выход.
	if len(u.Orders()) != 1 {
		t.Fatalf("order history must survive logout: %+v", u.Orders())
	}
	if u.Response() == nil {
		t.Fatalf("update response must survive logout")
	}
}

func TestUserLogout_FailureKeepsSession(t *testing.T) {
	client := &stubUserClient{loginUser: &model.User{Email: "test@example.com"}}
	u := NewUser(client)

	if err := u.Login(context.Background(), "test@example.com", "password123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	client.logoutErr = errors.New("Token is invalid")
	if err := u.Logout(context.Background()); err == nil {
		t.Fatalf("expected logout error")
	}

	if !u.IsAuthenticated() {
		t.Fatalf("failed logout must keep the session active")
	}
	if u.Profile() == nil {
		t.Fatalf("failed logout must keep the profile")
	}
	if u.Err() != "Token is invalid" {
		t.Fatalf("error = %q", u.Err())
	}
}

func TestUserSetAuthChecked(t *testing.T) {
	u := NewUser(&stubUserClient{})

	if u.IsAuthChecked() {
		t.Fatalf("fresh store must report auth unchecked")
	}

	u.SetAuthChecked()
	if !u.IsAuthChecked() {
		t.Fatalf("auth check flag not set")
	}
}
