package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/config"
	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/handler"
	"restaurant-realtime/internal/metrics"
	"restaurant-realtime/internal/middleware"
	"restaurant-realtime/internal/realtime"
	"restaurant-realtime/internal/redis"
	"restaurant-realtime/internal/server"
	"restaurant-realtime/internal/sink"
	"restaurant-realtime/internal/websocket"
	"restaurant-realtime/pkg/database"
	"restaurant-realtime/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Subscribe to every tracked table and serve websocket clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			l := logger.New(cfg.LogMode)
			logger.SetGlobalLogger(l)
			defer l.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := database.Connect(ctx, cfg.Database, l)
			if err != nil {
				return err
			}
			defer pool.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics.MustRegister(registry)

			hub := websocket.NewHub(l.Logger.Named("websocket"))
			go hub.Run(ctx)

			// with redis every instance, this one included, delivers to its
			// clients through the bridge; without it the hub is emitted to directly
			var emitters events.Multi
			var limiter middleware.ConnectLimiter
			if cfg.Redis.Enabled {
				rdb := redis.NewClient(cfg.Redis)
				defer rdb.Close()
				if err := redis.Ping(ctx, rdb); err != nil {
					return err
				}
				emitters = append(emitters, redis.NewPublisher(rdb, l.Logger.Named("redis")))
				limiter = redis.NewConnectLimiter(rdb, cfg.Server.ConnectLimit, time.Minute)

				bridge := websocket.NewRedisBridge(redis.NewSubscriber(rdb), hub, l.Logger.Named("redis-bridge"))
				go func() {
					if err := bridge.Run(ctx); err != nil {
						l.Errorf("redis bridge stopped: %v", err)
					}
				}()
			} else {
				emitters = append(emitters, hub)
			}

			if cfg.NATS.URL != "" {
				ns, err := sink.NewNatsSink(cfg.NATS.URL, cfg.NATS.SubjectPrefix, l.Logger.Named("nats"))
				if err != nil {
					return err
				}
				defer ns.Close()
				emitters = append(emitters, ns)
			}

			if len(cfg.Kafka.Brokers) > 0 {
				ks, err := sink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, l.Logger.Named("kafka"))
				if err != nil {
					return err
				}
				defer ks.Close()
				emitters = append(emitters, ks)
			}

			dispatcher := realtime.NewDispatcher(emitters, nil, l)
			manager := realtime.NewManager(changefeed.NewPostgresSource(pool, l), dispatcher, cfg.Database.Schema, l)
			defer manager.Close()

			if failed := manager.SubscribeAll(ctx); failed > 0 {
				l.Warnf("%d tables could not be subscribed; their changes will not be broadcast", failed)
			}

			tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
			srv := server.New(cfg, l)
			srv.SetupRoutes(&server.Handlers{
				Health:        handler.NewHealthHandler(pinger(pool), manager, hub),
				Subscriptions: handler.NewSubscriptionHandler(manager),
				Socket:        websocket.NewHandler(tokens, hub, websocket.NewGroupAuthorizer()),
			}, tokens, registry, limiter)

			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}
}

func pinger(pool *pgxpool.Pool) handler.Pinger {
	return func(ctx context.Context) error {
		return database.HealthCheck(ctx, pool)
	}
}
