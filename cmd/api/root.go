package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payrecon/internal/config"
	"payrecon/internal/gateway"
	"payrecon/internal/handler"
	"payrecon/internal/infra/db"
	infraRepo "payrecon/internal/infra/repository"
	"payrecon/internal/metrics"
	"payrecon/internal/ordernumber"
	"payrecon/internal/server"
	"payrecon/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "payrecon",
		Short:         "Reconciles payment gateway notifications into orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			//.envはあれば読む（本番は環境変数のみ）
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load when present")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newReviewCmd())
	return root
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelDebug
	if cfg.IsProd() {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// 設定読み込み + DB接続。どのコマンドも最初にこれを通る
func bootstrap() (config.Config, *gorm.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, gormDB, log, nil
}

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and operator HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, log, err := bootstrap()
			if err != nil {
				return err
			}
			if migrate {
				if err := db.Migrate(gormDB); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			metrics.Register()

			numbers, err := ordernumber.New()
			if err != nil {
				return err
			}

			//Repository（GORM実装）
			txm := infraRepo.NewTxManagerGorm(gormDB)

			//usecaseに渡す部品
			idGen := &uuidGenerator{}
			clock := &realClock{}

			guard := usecase.NewIdempotencyGuard(txm)
			reconcileUC := usecase.NewReconcileUsecase(txm, guard, numbers, idGen, clock, cfg.OrderNumberMaxAttempts, log)
			dispatchUC := usecase.NewDispatchUsecase(gateway.NewStripeVerifier(cfg.StripeWebhookSecret), reconcileUC, log)
			lookupUC := usecase.NewLookupUsecase(txm, guard)

			e := server.New(log, server.Handlers{
				Webhook: handler.NewWebhookHandler(dispatchUC),
				Lookup:  handler.NewOrderLookupHandler(lookupUC),
			}, cfg.JWTSecret)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Start(ctx, e, ":"+cfg.Port, log)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and unique indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, log, err := bootstrap()
			if err != nil {
				return err
			}
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migration completed")
			return nil
		},
	}
}

func newReviewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List orders created from placeholder metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, _, err := bootstrap()
			if err != nil {
				return err
			}

			txm := infraRepo.NewTxManagerGorm(gormDB)
			lookupUC := usecase.NewLookupUsecase(txm, usecase.NewIdempotencyGuard(txm))

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			items, err := lookupUC.ListNeedingReview(ctx, limit)
			if err != nil {
				return err
			}
			return writeReview(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max orders to list (1-200)")
	return cmd
}
