// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"roadaid/internal/config"
	"roadaid/internal/eta"
	"roadaid/internal/events"
	httptransport "roadaid/internal/http"
	"roadaid/internal/infra"
	"roadaid/internal/logger"
	"roadaid/internal/modules/dispatch"
	"roadaid/internal/modules/matching"
	"roadaid/internal/modules/provider"
	"roadaid/internal/modules/request"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres init: %v", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := infra.NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatalf("kafka init: %v", err)
		}
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		defer publisher.Close()
	}

	estimator := eta.NewEstimator(nil, cfg.Dispatch.AvgSpeedKmh)
	if cfg.Maps.APIKey != "" {
		mapsClient, err := infra.NewMapsClient(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		estimator = eta.NewEstimator(mapsClient, cfg.Dispatch.AvgSpeedKmh)
	}

	matchingStore := matching.NewStore(redisClient)

	providerStore := provider.NewPGStore(dbPool)
	providerSvc := provider.NewService(providerStore, matchingStore)

	requestStore := request.NewPGStore(dbPool)
	requestSvc := request.NewService(requestStore)

	matchingSvc := matching.NewService(providerSvc, matchingStore)

	dispatchSvc := dispatch.NewService(
		requestSvc, matchingSvc, providerSvc,
		estimator, publisher, cfg.Dispatch, log,
	)

	router := httptransport.NewRouter(dispatchSvc, requestSvc, providerSvc, log)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Infof("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
