// Package service реализует бизнес-логику сервиса бургерной.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrenko/stellar-burgers/internal/model"
	"github.com/mpetrenko/stellar-burgers/internal/repository"
)

// ErrInvalidCredentials возвращается при неверной паре почта/пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyOrder возвращается при попытке оформить заказ без ингредиентов.
	ErrEmptyOrder = errors.New("order has no ingredients")
)

const (
	feedLimit = 50

	// statusAdvanceAfter задаёт выдержку заказа в статусе перед переходом к следующему.
	statusAdvanceAfter = 5 * time.Second
	statusPollInterval = 1 * time.Second
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateAccount(ctx context.Context, email, name string, passwordHash []byte) (int64, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	UpdateAccount(ctx context.Context, id int64, email, name string, passwordHash []byte) (*model.Account, error)
	CreateSession(ctx context.Context, token string, accountID int64) error
	GetSessionAccount(ctx context.Context, token string) (int64, error)
	DeleteSession(ctx context.Context, token string) error
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	GetIngredientsByIDs(ctx context.Context, ids []string) (map[string]model.Ingredient, error)
	CreateOrder(ctx context.Context, accountID int64, orderID, name string, ingredientIDs []string) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number int) (*model.Order, error)
	GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	GetFeed(ctx context.Context, limit int) (*model.FeedSnapshot, error)
	AdvanceOrderStatuses(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Service содержит бизнес-логику сервиса бургерной.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterAccount регистрирует нового пользователя.
func (s *Service) RegisterAccount(ctx context.Context, email, password, name string) (*model.Account, error) {
	hashed := hashPassword(password)
	id, err := s.repo.CreateAccount(ctx, email, name, hashed)
	if err != nil {
		return nil, err
	}
	return &model.Account{ID: id, Email: email, Name: name, PasswordHash: hashed}, nil
}

// AuthenticateAccount проверяет почту и пароль пользователя.
func (s *Service) AuthenticateAccount(ctx context.Context, email, password string) (*model.Account, error) {
	a, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hmac.Equal(hashPassword(password), a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

func hashPassword(password string) []byte {
	sum := sha256.Sum256([]byte("stellar:" + password))
	return sum[:]
}

// GetAccount возвращает пользователя по идентификатору.
func (s *Service) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.repo.GetAccountByID(ctx, id)
}

// UpdateAccount изменяет профиль пользователя. Пустое поле оставляет
// прежнее значение.
func (s *Service) UpdateAccount(ctx context.Context, id int64, email, name, password string) (*model.Account, error) {
	current, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email == "" {
		email = current.Email
	}
	if name == "" {
		name = current.Name
	}

	var hashed []byte
	if password != "" {
		hashed = hashPassword(password)
	}

	return s.repo.UpdateAccount(ctx, id, email, name, hashed)
}

// IssueRefreshToken выпускает и сохраняет новый refresh-токен пользователя.
func (s *Service) IssueRefreshToken(ctx context.Context, accountID int64) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.repo.CreateSession(ctx, token, accountID); err != nil {
		return "", err
	}
	return token, nil
}

// RotateRefreshToken обменивает refresh-токен на новый, отзывая старый.
func (s *Service) RotateRefreshToken(ctx context.Context, token string) (int64, string, error) {
	accountID, err := s.repo.GetSessionAccount(ctx, token)
	if err != nil {
		return 0, "", err
	}

	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return 0, "", err
	}

	fresh, err := s.IssueRefreshToken(ctx, accountID)
	if err != nil {
		return 0, "", err
	}

	return accountID, fresh, nil
}

// Logout отзывает refresh-токен пользователя.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// ListIngredients возвращает каталог ингредиентов.
func (s *Service) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	return s.repo.ListIngredients(ctx)
}

// CreateOrder оформляет заказ из перечисленных ингредиентов.
func (s *Service) CreateOrder(ctx context.Context, accountID int64, ingredientIDs []string) (*model.Order, error) {
	if len(ingredientIDs) == 0 {
		return nil, ErrEmptyOrder
	}

	known, err := s.repo.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range ingredientIDs {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrUnknownIngredient, id)
		}
	}

	name := composeOrderName(ingredientIDs, known)
	return s.repo.CreateOrder(ctx, accountID, uuid.NewString(), name, ingredientIDs)
}

// composeOrderName собирает отображаемое имя заказа из названия булки.
func composeOrderName(ids []string, known map[string]model.Ingredient) string {
	for _, id := range ids {
		if ing := known[id]; ing.Type == model.IngredientTypeBun {
			return ing.Name + " бургер"
		}
	}
	return "Космический бургер"
}

// GetFeed возвращает снимок общей ленты заказов.
func (s *Service) GetFeed(ctx context.Context) (*model.FeedSnapshot, error) {
	return s.repo.GetFeed(ctx, feedLimit)
}

// GetOrderByNumber возвращает заказ по публичному номеру.
func (s *Service) GetOrderByNumber(ctx context.Context, number int) (*model.Order, error) {
	return s.repo.GetOrderByNumber(ctx, number)
}

// GetOrdersByAccount возвращает историю заказов пользователя.
func (s *Service) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByAccount(ctx, accountID)
}

// StartStatusUpdates запускает фоновый процесс продвижения статусов заказов:
// created -> pending -> done.
func (s *Service) StartStatusUpdates(ctx context.Context) {
	if s.repo == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(statusPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.repo.AdvanceOrderStatuses(ctx, statusAdvanceAfter)
			}
		}
	}()
}
