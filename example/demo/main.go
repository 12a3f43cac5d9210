// Command demo wires the dispatch pipeline with the banking example domain
// and runs a few dispatch scenarios end to end.
//
// The store engine is chosen via KLEDEX_STORE_ENGINE: "memory" (default),
// "postgres-pgx" or "postgres-sqlx" (see example/shared/config).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // database driver for the sqlx engine

	"github.com/MrKimHH/kledex-go/dispatch"
	"github.com/MrKimHH/kledex-go/dispatch/memoryengine"
	"github.com/MrKimHH/kledex-go/dispatch/postgresengine"
	"github.com/MrKimHH/kledex-go/example/banking"
	"github.com/MrKimHH/kledex-go/example/shared/config"
)

// slogLogger adapts log/slog to the dispatch.Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func main() {
	ctx := context.Background()
	logger := slogLogger{logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	cfg, err := config.Load()
	if err != nil {
		fail("loading config failed", err)
	}

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		fail("building store failed", err)
	}

	registry := dispatch.NewHandlerRegistry()
	if err := banking.RegisterHandlers(registry); err != nil {
		fail("registering handlers failed", err)
	}

	publisher := dispatch.PublisherFunc(func(_ context.Context, event dispatch.Event) error {
		logger.Info("event published", "event_type", event.EventType())
		return nil
	})

	dispatcher, err := dispatch.NewDispatcher(
		registry,
		dispatch.WithDomainStore(store),
		dispatch.WithPublisher(publisher),
		dispatch.WithValidator(banking.Validator()),
		dispatch.WithLogger(logger),
		dispatch.WithValidationByDefault(cfg.ValidateByDefault),
		dispatch.WithEventPublishingByDefault(cfg.PublishByDefault),
	)
	if err != nil {
		fail("building dispatcher failed", err)
	}

	runScenarios(ctx, dispatcher, logger)
}

func buildStore(ctx context.Context, cfg config.Config, logger dispatch.Logger) (dispatch.Store, error) {
	switch cfg.StoreEngine {
	case config.StoreEnginePostgresPGX:
		poolConfig, err := cfg.PostgresPGXPoolConfig()
		if err != nil {
			return nil, err
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}

		return postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithTableName(cfg.EventTableName), postgresengine.WithLogger(logger))

	case config.StoreEnginePostgresSQLX:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		return postgresengine.NewStoreFromSQLX(db, postgresengine.WithTableName(cfg.EventTableName), postgresengine.WithLogger(logger))

	default:
		return memoryengine.NewStore(), nil
	}
}

func runScenarios(ctx context.Context, dispatcher *dispatch.Dispatcher, logger dispatch.Logger) {
	accountID := uuid.New()

	// Open an account: one event appended, one event published.
	if err := dispatcher.Send(ctx, banking.BuildOpenAccount(accountID, "Ada Lovelace")); err != nil {
		fail("opening account failed", err)
	}

	// Plain command with a typed result.
	receipt, err := dispatch.SendAndReturn[banking.WelcomeEmailReceipt](
		ctx, dispatcher, banking.BuildSendWelcomeEmail(accountID, "ada@example.com"))
	if err != nil {
		fail("sending welcome email failed", err)
	}
	logger.Info("welcome email sent", "message_id", receipt.MessageID)

	// Deposit against the version observed after opening.
	balance, err := dispatch.SendAndReturn[int64](
		ctx, dispatcher, banking.BuildDepositMoney(accountID, 1, 100_00, 0))
	if err != nil {
		fail("depositing money failed", err)
	}
	logger.Info("deposit booked", "balance", balance)

	// Same observed version again: the store rejects the stale command.
	staleErr := dispatcher.Send(ctx, banking.BuildDepositMoney(accountID, 1, 50_00, 100_00))
	if !errors.Is(staleErr, dispatch.ErrConcurrencyConflict) {
		fail("expected a concurrency conflict", staleErr)
	}
	logger.Info("stale deposit rejected", "error", staleErr.Error())

	// Publishing can be suppressed per command instance.
	quiet := banking.BuildDepositMoney(accountID, 2, 25_00, 150_00, dispatch.WithEventPublishing(false))
	if err := dispatcher.Send(ctx, quiet); err != nil {
		fail("quiet deposit failed", err)
	}

	// The asynchronous shape shares the same pipeline and semantics.
	outcome := dispatcher.SendAsync(ctx, banking.BuildDepositMoney(accountID, 3, 10_00, 175_00))
	if err := <-outcome; err != nil {
		fail("async deposit failed", err)
	}

	logger.Info("all scenarios completed")
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
