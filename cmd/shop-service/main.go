// The shop-service binary hosts the catalog, carts and the checkout
// orchestration against the bank ledger.
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"shopbank/internal/pkg/bootstrap"
	"shopbank/internal/pkg/constants"
	"shopbank/internal/pkg/httpclient"
	"shopbank/internal/pkg/mq"
	"shopbank/internal/pkg/redis"
	"shopbank/internal/pkg/session"
	"shopbank/internal/service/shop/application"
	"shopbank/internal/service/shop/infrastructure"
	"shopbank/internal/service/shop/infrastructure/adapter"
	"shopbank/internal/service/shop/interfaces"
	"shopbank/internal/zookeeper"
)

const servicePort = 8081

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.Open(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	var zkConn *zookeeper.Conn
	if cfg.Infra.Zookeeper.Enabled {
		zkConn, err = zookeeper.Connect(cfg.Infra.Zookeeper.Hosts)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
	}

	eventWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, constants.OrderEventsTopic)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.ShopService,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.ShopService)

			products := infrastructure.NewGormProductRepository(db)
			buyers := infrastructure.NewGormBuyerRepository(db)
			carts := infrastructure.NewGormCartRepository(db)
			orders := infrastructure.NewGormOrderRepository(db)
			stock := infrastructure.NewGormStockGuard(db, zkConn)

			bank := adapter.NewBankHTTPAdapter(httpclient.NewClient(tracer, appCtx.Nacos))
			notifier := adapter.NewNotificationKafkaAdapter(eventWriter)
			sessions := session.NewManager(redisClient, cfg.App.SessionTTL)

			catalog := application.NewCatalogService(products, buyers, tracer)
			cart := application.NewCartService(carts, products, buyers, tracer)
			checkout := application.NewCheckoutService(
				buyers, carts, orders, stock, bank, notifier,
				cfg.App.MerchantAccount, cfg.App.BankCallTimeout, tracer,
			)

			interfaces.NewHandler(catalog, cart, checkout, sessions).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := eventWriter.Close(); err != nil {
				log.Error().Err(err).Msg("closing kafka writer")
			}
			if err := redisClient.Close(); err != nil {
				log.Error().Err(err).Msg("closing redis client")
			}
			if zkConn != nil {
				zkConn.Close()
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	})
}
