package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"wheres-my-food/internal/idempotency"
	"wheres-my-food/internal/inventory"
	"wheres-my-food/internal/notification"
	orderdb "wheres-my-food/internal/orderservice/db"
	"wheres-my-food/internal/orderservice/handler"
	"wheres-my-food/internal/orderservice/memstore"
	"wheres-my-food/internal/orderservice/message"
	"wheres-my-food/internal/orderservice/service"
	"wheres-my-food/internal/tracking"
	"wheres-my-food/pkg/clock"
	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/db"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
	"wheres-my-food/pkg/rabbitmq"
	"wheres-my-food/pkg/tracing"
	"wheres-my-food/pkg/workerpool"
)

// store is everything the service needs from a storage driver.
type store interface {
	service.OrderStore
	service.Catalog
	service.Contacts
	inventory.StockStore
	tracking.Store
}

type Server struct {
	cfg        *config.Config
	mylog      *logger.Logger
	httpServer *http.Server

	dbPool  *pgxpool.Pool
	redis   *redis.Client
	events  message.Publisher
	workers *workerpool.Pool
	tracing func(context.Context) error
}

// New connects every configured backend and assembles the HTTP server.
// On error, whatever was already opened is closed again.
func New(ctx context.Context, cfg *config.Config, mylog *logger.Logger) (*Server, error) {
	s := &Server{cfg: cfg, mylog: mylog}
	ready := false
	defer func() {
		if !ready {
			_ = s.Stop(context.Background())
		}
	}()

	var err error
	if s.tracing, err = tracing.Setup(ctx, cfg.App.Name, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	st, err := s.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if s.events, err = s.openEvents(); err != nil {
		return nil, err
	}
	idem, err := s.openIdempotency(ctx)
	if err != nil {
		return nil, err
	}

	nc := cfg.Notifications
	s.workers = workerpool.New(nc.Workers, nc.QueueSize, mylog)
	if !nc.SMSEnabled() {
		mylog.Action("sms_disabled").Warn("SMS credentials not configured, notifications will be skipped")
	}
	dispatcher := notification.NewDispatcher(notification.ChannelFromConfig(nc), nc.DefaultCountryCode, nc.SendTimeout, mylog)

	clk := clock.NewSystem()
	svc := service.NewOrderService(service.Deps{
		Orders:      st,
		Catalog:     st,
		Contacts:    st,
		Stock:       inventory.NewLedger(st, mylog),
		Tracking:    tracking.NewLedger(st, clk),
		Notifier:    dispatcher,
		Events:      s.events,
		Idempotency: idem,
		Runner:      s.workers,
		Clock:       clk,
		Logger:      mylog,
	}, service.Options{
		EnforceTransitions: cfg.Orders.EnforceTransitions,
		DefaultListLimit:   cfg.Orders.DefaultListLimit,
		MaxListLimit:       cfg.Orders.MaxListLimit,
	})

	mux := http.NewServeMux()
	auth := handler.NewAuthenticator(cfg.Auth)
	handler.NewOrderHandler(svc, mylog).Register(mux, auth.Middleware)
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = mux
	h = handler.LimitConcurrency(h, cfg.HTTP.MaxConcurrent)
	h = metrics.Middleware(h)
	h = handler.RequestLogger(h, mylog)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      h,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	ready = true
	return s, nil
}

func (s *Server) openStore(ctx context.Context) (store, error) {
	switch s.cfg.Storage.Driver {
	case "memory":
		ms := memstore.New()
		if s.cfg.Storage.SeedFile != "" {
			if err := ms.LoadSeed(s.cfg.Storage.SeedFile); err != nil {
				return nil, err
			}
		}
		s.mylog.Action("storage_ready").Info("Using in-memory storage", "seed_file", s.cfg.Storage.SeedFile)
		return ms, nil
	default:
		pool, err := db.ConnectDB(ctx, s.cfg.Database, s.mylog)
		if err != nil {
			return nil, err
		}
		s.dbPool = pool
		return orderdb.NewOrderDB(pool, s.mylog), nil
	}
}

func (s *Server) openEvents() (message.Publisher, error) {
	switch s.cfg.Events.Driver {
	case "none":
		return message.Noop{}, nil
	case "kafka":
		w := &kafka.Writer{
			Addr:         kafka.TCP(s.cfg.Kafka.Brokers...),
			Topic:        s.cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: s.cfg.Kafka.BatchTimeout,
		}
		return message.NewKafkaPublisher(w, s.mylog), nil
	default:
		rmq, err := rabbitmq.ConnectRabbitMQ(s.cfg.RabbitMQ, s.mylog)
		if err != nil {
			return nil, err
		}
		return message.NewRabbitPublisher(rmq, s.mylog), nil
	}
}

func (s *Server) openIdempotency(ctx context.Context) (idempotency.Store, error) {
	ttl := s.cfg.Idempotency.TTL
	switch s.cfg.Idempotency.Driver {
	case "none":
		return nil, nil
	case "memory":
		return idempotency.NewMemoryStore(ttl), nil
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.redis = rdb
		return idempotency.NewRedisStore(rdb, ttl), nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.dbPool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.dbPool.Ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "service": s.cfg.App.Name})
}

func (s *Server) Run() error {
	s.mylog.Action("server_started").Info(fmt.Sprintf("Order Service started on port %d", s.cfg.HTTP.Port),
		"storage", s.cfg.Storage.Driver, "events", s.cfg.Events.Driver)
	return s.httpServer.ListenAndServe()
}

// Stop drains HTTP first, then background work, then closes backends.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.workers != nil {
		if err := s.workers.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain workers: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close events: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.tracing != nil {
		if err := s.tracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	s.mylog.Action("server_stopped").Info("Order Service stopped")
	return errors.Join(errs...)
}
