// Package session хранит пару токенов авторизации пользователя.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Tokens содержит короткоживущий access-токен и долгоживущий refresh-токен.
// Access-токен живёт только в памяти, refresh-токен при наличии пути
// сохраняется в файл и переживает перезапуск клиента.
type Tokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	path    string
}

type persistedTokens struct {
	RefreshToken string `json:"refreshToken"`
}

// NewTokens создаёт хранилище токенов. Пустой путь отключает персистентность.
func NewTokens(path string) *Tokens {
	return &Tokens{path: path}
}

// Load восстанавливает refresh-токен из файла, если он был сохранён ранее.
// Отсутствие файла не является ошибкой.
func (t *Tokens) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path == "" {
		return nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read tokens file: %w", err)
	}

	var p persistedTokens
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode tokens file: %w", err)
	}

	t.refresh = p.RefreshToken
	return nil
}

// SetPair сохраняет новую пару токенов.
func (t *Tokens) SetPair(access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.access = access
	t.refresh = refresh

	return t.persist()
}

// Clear удаляет оба токена и сохранённый файл. Вызывается при выходе из системы.
func (t *Tokens) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.access = ""
	t.refresh = ""

	if t.path == "" {
		return nil
	}
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove tokens file: %w", err)
	}
	return nil
}

// AccessToken возвращает текущий access-токен. Пустая строка — токена нет.
func (t *Tokens) AccessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.access
}

// RefreshToken возвращает текущий refresh-токен. Пустая строка — токена нет.
func (t *Tokens) RefreshToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refresh
}

func (t *Tokens) persist() error {
	if t.path == "" {
		return nil
	}

	data, err := json.Marshal(persistedTokens{RefreshToken: t.refresh})
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	if err := os.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("write tokens file: %w", err)
	}
	return nil
}
