package store

import (
	"context"
	"sync"

	"github.com/mpetrenko/stellar-burgers/internal/api"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

// UserClient описывает контракт операций аутентификации и профиля.
type UserClient interface {
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	User(ctx context.Context) (*model.User, error)
	UpdateUser(ctx context.Context, update api.UserUpdate) (*model.User, error)
	UserOrders(ctx context.Context) ([]model.Order, error)
}

// User хранит состояние сессии: профиль, историю заказов пользователя и
// флаги хода аутентификации.
type User struct {
	mu     sync.Mutex
	client UserClient

	userData   *model.User
	userOrders []model.Order
	response   *model.User

	request      bool
	loginRequest bool

	isAuthChecked   bool
	isAuthenticated bool

	lastErr string
}

// NewUser создаёт хранилище сессии без авторизованного пользователя.
func NewUser(client UserClient) *User {
	return &User{client: client}
}

// FetchProfile загружает профиль текущего пользователя. Неудача намеренно
// не отражается в состоянии: первый запрос профиля при старте приложения
// ожидаемо падает для неавторизованного пользователя.
func (u *User) FetchProfile(ctx context.Context) error {
	profile, err := u.client.User(ctx)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.userData = profile
	return nil
}

// Register регистрирует нового пользователя и сохраняет его профиль.
func (u *User) Register(ctx context.Context, email, password, name string) error {
	u.mu.Lock()
	u.request = true
	u.lastErr = ""
	u.mu.Unlock()

	profile, err := u.client.Register(ctx, email, password, name)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.request = false
	if err != nil {
		u.lastErr = err.Error()
		return err
	}

	u.userData = profile
	return nil
}

// Login выполняет вход. Сам факт попытки входа помечает аутентификацию
// проверенной; авторизованным пользователь становится только при успехе.
func (u *User) Login(ctx context.Context, email, password string) error {
	u.mu.Lock()
	u.loginRequest = true
	u.isAuthChecked = true
	u.lastErr = ""
	u.mu.Unlock()

	profile, err := u.client.Login(ctx, email, password)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.loginRequest = false
	if err != nil {
		u.isAuthenticated = false
		u.lastErr = err.Error()
		return err
	}

	u.isAuthenticated = true
	u.userData = profile
	return nil
}

// UpdateProfile изменяет профиль. Результат сохраняется в отдельное поле
// последнего ответа и не замещает профиль активной сессии.
func (u *User) UpdateProfile(ctx context.Context, update api.UserUpdate) error {
	u.mu.Lock()
	u.request = true
	u.lastErr = ""
	u.mu.Unlock()

	updated, err := u.client.UpdateUser(ctx, update)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.request = false
	if err != nil {
		u.lastErr = err.Error()
		return err
	}

	u.response = updated
	return nil
}

// FetchOrders загружает историю заказов пользователя.
func (u *User) FetchOrders(ctx context.Context) error {
	u.mu.Lock()
	u.request = true
	u.lastErr = ""
	u.mu.Unlock()

	orders, err := u.client.UserOrders(ctx)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.request = false
	if err != nil {
		u.lastErr = err.Error()
		return err
	}

	u.userOrders = orders
	return nil
}

// Logout завершает сессию. Пока сервер не подтвердил выход, сессия считается
// активной. Успех очищает профиль и признак авторизации, но не трогает
// историю заказов и последний ответ обновления профиля: это независимые
// кэши, а не часть учётных данных.
func (u *User) Logout(ctx context.Context) error {
	u.mu.Lock()
	u.request = true
	u.isAuthChecked = true
	u.mu.Unlock()

	err := u.client.Logout(ctx)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.request = false
	if err != nil {
		u.lastErr = err.Error()
		return err
	}

	u.isAuthenticated = false
	u.userData = nil
	u.lastErr = ""
	return nil
}

// SetAuthChecked помечает первичную проверку аутентификации завершённой.
func (u *User) SetAuthChecked() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.isAuthChecked = true
}

// Profile возвращает профиль текущего пользователя или nil.
func (u *User) Profile() *model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userData
}

// Orders возвращает историю заказов пользователя.
func (u *User) Orders() []model.Order {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userOrders
}

// Response возвращает профиль из последнего ответа обновления или nil.
func (u *User) Response() *model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.response
}

// Request сообщает, выполняется ли запрос хранилища сессии.
func (u *User) Request() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.request
}

// LoginRequest сообщает, выполняется ли запрос входа.
func (u *User) LoginRequest() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loginRequest
}

// IsAuthChecked сообщает, завершалась ли хотя бы одна проверка аутентификации.
func (u *User) IsAuthChecked() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.isAuthChecked
}

// IsAuthenticated сообщает, авторизован ли пользователь сейчас.
func (u *User) IsAuthenticated() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.isAuthenticated
}

// Err возвращает сообщение последней ошибки хранилища сессии.
func (u *User) Err() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}
