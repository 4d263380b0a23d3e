// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mpetrenko/stellar-burgers/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAccountExists возвращается при попытке создать пользователя с уже занятой почтой.
var (
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound возвращается, если пользователь не найден.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSessionNotFound возвращается, если refresh-токен неизвестен серверу.
	ErrSessionNotFound = errors.New("session not found")
	// ErrOrderNotFound возвращается, если заказ с указанным номером отсутствует.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUnknownIngredient возвращается, если заказ ссылается на несуществующий ингредиент.
	ErrUnknownIngredient = errors.New("unknown ingredient")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateAccount создаёт нового пользователя.
func (r *PostgresRepository) CreateAccount(ctx context.Context, email, name string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		email, name, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrAccountExists, email)
		}
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

// GetAccountByEmail возвращает пользователя по адресу почты.
func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getAccount(ctx,
		`SELECT id, email, name, password_hash, created_at FROM accounts WHERE email = $1`, email)
}

// GetAccountByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.getAccount(ctx,
		`SELECT id, email, name, password_hash, created_at FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) getAccount(ctx context.Context, query string, arg any) (*model.Account, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &a, nil
}

// UpdateAccount изменяет имя, почту и, если передан новый хэш, пароль пользователя.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, id int64, email, name string, passwordHash []byte) (*model.Account, error) {
	var query string
	var args []any
	if passwordHash != nil {
		query = `UPDATE accounts SET email = $2, name = $3, password_hash = $4 WHERE id = $1
			 RETURNING id, email, name, password_hash, created_at`
		args = []any{id, email, name, passwordHash}
	} else {
		query = `UPDATE accounts SET email = $2, name = $3 WHERE id = $1
			 RETURNING id, email, name, password_hash, created_at`
		args = []any{id, email, name}
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	return &a, nil
}

// CreateSession сохраняет refresh-токен пользователя.
func (r *PostgresRepository) CreateSession(ctx context.Context, token string, accountID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, account_id) VALUES ($1, $2)`,
		token, accountID,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSessionAccount возвращает владельца refresh-токена.
func (r *PostgresRepository) GetSessionAccount(ctx context.Context, token string) (int64, error) {
	var accountID int64
	err := r.pool.QueryRow(ctx,
		`SELECT account_id FROM sessions WHERE token = $1`,
		token,
	).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("get session: %w", err)
	}
	return accountID, nil
}

// DeleteSession удаляет refresh-токен.
func (r *PostgresRepository) DeleteSession(ctx context.Context, token string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListIngredients возвращает каталог ингредиентов в порядке добавления.
func (r *PostgresRepository) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, proteins, fat, carbohydrates, calories, price, image, image_mobile, image_large
		 FROM ingredients
		 ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}
	defer rows.Close()

	var res []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Type, &ing.Proteins, &ing.Fat,
			&ing.Carbohydrates, &ing.Calories, &ing.Price, &ing.Image, &ing.ImageMobile, &ing.ImageLarge); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		res = append(res, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetIngredientsByIDs возвращает ингредиенты по их идентификаторам.
func (r *PostgresRepository) GetIngredientsByIDs(ctx context.Context, ids []string) (map[string]model.Ingredient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, proteins, fat, carbohydrates, calories, price, image, image_mobile, image_large
		 FROM ingredients
		 WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select ingredients by ids: %w", err)
	}
	defer rows.Close()

	res := make(map[string]model.Ingredient)
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Type, &ing.Proteins, &ing.Fat,
			&ing.Carbohydrates, &ing.Calories, &ing.Price, &ing.Image, &ing.ImageMobile, &ing.ImageLarge); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		res[ing.ID] = ing
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateOrder сохраняет заказ вместе с его составом и возвращает заказ
// с присвоенным публичным номером.
func (r *PostgresRepository) CreateOrder(ctx context.Context, accountID int64, orderID, name string, ingredientIDs []string) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		number    int
		createdAt time.Time
		updatedAt time.Time
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, account_id, name, status) VALUES ($1, $2, $3, $4)
		 RETURNING number, created_at, updated_at`,
		orderID, accountID, name, string(model.OrderStatusCreated),
	).Scan(&number, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for pos, ingredientID := range ingredientIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_ingredients (order_id, ingredient_id, position) VALUES ($1, $2, $3)`,
			orderID, ingredientID, pos,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return nil, fmt.Errorf("%w: %s", ErrUnknownIngredient, ingredientID)
			}
			return nil, fmt.Errorf("insert order ingredient: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.Order{
		ID:          orderID,
		Ingredients: ingredientIDs,
		Status:      model.OrderStatusCreated,
		Name:        name,
		CreatedAt:   createdAt.UTC().Format(time.RFC3339),
		UpdatedAt:   updatedAt.UTC().Format(time.RFC3339),
		Number:      number,
	}, nil
}

const orderColumns = `o.id, o.name, o.status, o.created_at, o.updated_at, o.number,
	 COALESCE(array_agg(oi.ingredient_id ORDER BY oi.position)
	          FILTER (WHERE oi.ingredient_id IS NOT NULL), '{}')`

func scanOrder(rows pgx.Rows) (model.Order, error) {
	var (
		o         model.Order
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := rows.Scan(&o.ID, &o.Name, &status, &createdAt, &updatedAt, &o.Number, &o.Ingredients); err != nil {
		return model.Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Status = model.OrderStatus(status)
	o.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	o.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return o, nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrderByNumber возвращает заказ по его публичному номеру.
func (r *PostgresRepository) GetOrderByNumber(ctx context.Context, number int) (*model.Order, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 LEFT JOIN order_ingredients oi ON oi.order_id = o.id
		 WHERE o.number = $1
		 GROUP BY o.id`,
		number,
	)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &orders[0], nil
}

// GetOrdersByAccount возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 LEFT JOIN order_ingredients oi ON oi.order_id = o.id
		 WHERE o.account_id = $1
		 GROUP BY o.id
		 ORDER BY o.created_at DESC`,
		accountID,
	)
}

// GetFeed возвращает снимок общей ленты: последние заказы и агрегатные счётчики.
func (r *PostgresRepository) GetFeed(ctx context.Context, limit int) (*model.FeedSnapshot, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 LEFT JOIN order_ingredients oi ON oi.order_id = o.id
		 GROUP BY o.id
		 ORDER BY o.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	var total, totalToday int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now()))
		 FROM orders`,
	).Scan(&total, &totalToday)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	return &model.FeedSnapshot{
		Orders:     orders,
		Total:      total,
		TotalToday: totalToday,
	}, nil
}

// AdvanceOrderStatuses переводит отлежавшиеся заказы на следующий статус:
// created -> pending -> done. Возвращает число изменённых заказов.
func (r *PostgresRepository) AdvanceOrderStatuses(ctx context.Context, olderThan time.Duration) (int64, error) {
	interval := olderThan.Seconds()

	done, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now()
		 WHERE status = $2 AND updated_at < now() - make_interval(secs => $3)`,
		string(model.OrderStatusDone), string(model.OrderStatusPending), interval,
	)
	if err != nil {
		return 0, fmt.Errorf("finish orders: %w", err)
	}

	pending, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now()
		 WHERE status = $2 AND updated_at < now() - make_interval(secs => $3)`,
		string(model.OrderStatusPending), string(model.OrderStatusCreated), interval,
	)
	if err != nil {
		return 0, fmt.Errorf("start orders: %w", err)
	}

	return done.RowsAffected() + pending.RowsAffected(), nil
}
