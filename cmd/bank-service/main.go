// The bank-service binary hosts the account ledger: registration,
// balance queries, transfers and statements.
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"shopbank/internal/pkg/bootstrap"
	"shopbank/internal/pkg/constants"
	"shopbank/internal/service/ledger/application"
	"shopbank/internal/service/ledger/infrastructure"
	"shopbank/internal/service/ledger/interfaces"
)

const servicePort = 8080

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.Open(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.BankService,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.BankService)
			service := application.NewService(
				infrastructure.NewGormUnitOfWork(db),
				infrastructure.NewGormAccountRepository(db),
				infrastructure.NewGormTransactionRepository(db),
				cfg.App.MinimumBalance,
				tracer,
			)
			interfaces.NewHandler(service).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	})
}
