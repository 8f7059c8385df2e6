package main

import (
	"context"
	"log/slog"
	"os"

	"curator/config"
	"curator/internal/delivery"
	"curator/internal/delivery/http"
	"curator/internal/delivery/http/middleware"
	"curator/internal/delivery/http/router/handler"
	"curator/internal/infra/auth"
	logs "curator/internal/infra/log"
	"curator/internal/infra/persistence/firestore"
	"curator/internal/infra/persistence/local"
	"curator/internal/infra/pubsub"
	"curator/internal/infra/storage"
	"curator/internal/usecase"
	"curator/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
			bootstrap,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		local.NewStore,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			local.NewAccountRepository,
			local.NewAttemptRepository,
			local.NewSessionRepository,
			local.NewLegacyImageStore,
			local.NewLegacyKVStore,
			firestore.NewRemoteStore,
			storage.NewBlobStore,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewTokenSource,
			pubsub.NewEventPublisher,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewMigrationService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewRequestIDMiddleware,
			middleware.NewLoggerMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewMigrationHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

// bootstrap runs the boot sequence: seed the owner account, restore the
// persisted session, then run the gated data migration when a session
// survived the restart.
func bootstrap(ctx context.Context, logger *slog.Logger, authUC usecase.AuthUsecase, migrationUC usecase.MigrationUsecase) error {
	if err := authUC.BootstrapOwnerAccount(ctx); err != nil {
		return err
	}

	identity, err := authUC.RestoreSession(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		logger.Info("No session to restore, migration deferred until login")

		return nil
	}

	logger.Info("Session restored", slog.String("username", identity.Account.Username))

	err = migrationUC.RunIfNeeded(ctx, identity.Account, func(percent int) {
		logger.Info("Migration progress", slog.Int("percent", percent))
	})
	if err != nil {
		// A failed migration keeps the server up: the operator resolves
		// it through the retry endpoint.
		logger.Error("Migration failed", slog.Any("error", err))
	}

	return nil
}
