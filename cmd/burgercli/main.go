// Package main запускает сквозную проверку клиентских хранилищ против
// работающего сервера бургерной: каталог, сборка бургера, регистрация,
// оформление заказа, лента и выход.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mpetrenko/stellar-burgers/internal/api"
	"github.com/mpetrenko/stellar-burgers/internal/config"
	"github.com/mpetrenko/stellar-burgers/internal/model"
	"github.com/mpetrenko/stellar-burgers/internal/session"
	"github.com/mpetrenko/stellar-burgers/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens := session.NewTokens(cfg.TokensFile)
	if err := tokens.Load(); err != nil {
		sugar.Fatalw("load tokens error", "error", err.Error())
	}

	client := api.NewClient(cfg.APIAddress, tokens)
	root := store.NewRoot(client)

	if err := run(ctx, sugar, root); err != nil {
		sugar.Fatalw("smoke run failed", "error", err.Error())
	}
	sugar.Info("smoke run finished")
}

func run(ctx context.Context, sugar *zap.SugaredLogger, root *store.Root) error {
	if err := root.Catalog.Fetch(ctx); err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	items := root.Catalog.Items()
	sugar.Infow("catalog loaded", "ingredients", len(items))

	var bun, topping *model.Ingredient
	for i := range items {
		switch {
		case bun == nil && items[i].Type == model.IngredientTypeBun:
			bun = &items[i]
		case topping == nil && items[i].Type != model.IngredientTypeBun:
			topping = &items[i]
		}
	}
	if bun == nil || topping == nil {
		return fmt.Errorf("catalog has no bun or topping")
	}

	root.Constructor.Add(*bun)
	root.Constructor.Add(*topping)
	sugar.Infow("burger assembled", "bun", bun.Name, "topping", topping.Name)

	email := fmt.Sprintf("smoke-%s@stellar.test", uuid.NewString())
	if err := root.User.Register(ctx, email, "supersecret", "Smoke Tester"); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	sugar.Infow("registered", "email", email, "authenticated", root.User.IsAuthenticated())

	order, err := root.Constructor.Submit(ctx)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	sugar.Infow("order placed", "number", order.Number, "name", order.Name)
	root.Constructor.ResetModal()

	if err := root.Lookup.FetchByNumber(ctx, order.Number); err != nil {
		return fmt.Errorf("lookup order: %w", err)
	}
	if root.Lookup.Result() == nil {
		return fmt.Errorf("order %d not found in lookup", order.Number)
	}

	// Несколько циклов опроса ленты: заказ должен появиться и поменять статус.
	for i := 0; i < 3; i++ {
		if err := root.Feed.Fetch(ctx); err != nil {
			return fmt.Errorf("fetch feed: %w", err)
		}
		feed := root.Feed.State()
		sugar.Infow("feed snapshot", "orders", len(feed.Orders), "total", feed.Total, "totalToday", feed.TotalToday)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if err := root.User.FetchOrders(ctx); err != nil {
		return fmt.Errorf("fetch order history: %w", err)
	}
	sugar.Infow("order history loaded", "orders", len(root.User.Orders()))

	if err := root.User.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	sugar.Infow("logged out", "authenticated", root.User.IsAuthenticated())

	return nil
}
