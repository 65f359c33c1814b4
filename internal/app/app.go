// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/auth"
	"github.com/ukydev/fleet-lifecycle/internal/config"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/handlers"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/metrics"
	"github.com/ukydev/fleet-lifecycle/internal/middleware"
	"github.com/ukydev/fleet-lifecycle/internal/notify"
	"github.com/ukydev/fleet-lifecycle/internal/reports"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the wired services.
type App struct {
	Config *config.Config
	Store  *db.Store

	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Engine    *aggregate.Engine
	Reports   *reports.Assembler
	Refresher *lifecycle.Refresher
	// Auth is nil when no JWT secret is configured.
	Auth *auth.Service

	mongo *mongo.Client
	mqtt  mqtt.Client
}

// New wires services over an already opened store. A nil notifier disables
// refresh events.
func New(cfg *config.Config, store *db.Store, notifier lifecycle.Notifier) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if store == nil {
		return nil, errors.New("app: nil store")
	}
	policy := cfg.Policy
	if policy == nil {
		policy = lifecycle.DefaultPolicy()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := aggregate.NewEngine(store, aggregate.WithRecorder(m))
	opts := []lifecycle.Option{
		lifecycle.WithConcurrency(cfg.RefreshConcurrency),
		lifecycle.WithRecorder(m),
	}
	if notifier != nil {
		opts = append(opts, lifecycle.WithNotifier(notifier))
	}

	a := &App{
		Config:    cfg,
		Store:     store,
		Registry:  reg,
		Metrics:   m,
		Engine:    engine,
		Reports:   reports.NewAssembler(store, engine, policy),
		Refresher: lifecycle.NewRefresher(store, policy, opts...),
	}
	if cfg.JWTSecret != "" {
		svc, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
		if err != nil {
			return nil, err
		}
		a.Auth = svc
	}
	return a, nil
}

// Open connects to MongoDB and, when configured, the MQTT broker, then wires
// the services over them.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	var (
		notifier lifecycle.Notifier
		broker   mqtt.Client
	)
	if cfg.MQTTEnabled() {
		broker, err = notify.Connect(notify.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		notifier = notify.NewMQTTNotifier(broker, cfg.MQTTTopic)
	}

	a, err := New(cfg, db.NewMongoStore(client.Database(cfg.MongoDB)), notifier)
	if err != nil {
		_ = client.Disconnect(context.Background())
		if broker != nil {
			broker.Disconnect(250)
		}
		return nil, err
	}
	a.mongo = client
	a.mqtt = broker
	return a, nil
}

// Handler builds the HTTP API.
func (a *App) Handler() (http.Handler, error) {
	if a.Auth == nil {
		return nil, fmt.Errorf("%w: JWT_SECRET is required to serve the API", config.ErrInvalidConfig)
	}
	return handlers.NewRouter(handlers.RouterConfig{
		Auth:         middleware.NewAuthMiddleware(a.Auth, a.Store.Users),
		Reports:      a.Reports,
		Refresher:    a.Refresher,
		Users:        a.Store.Users,
		RefreshLimit: a.Config.RefreshRateLimit,
		Metrics:      a.Metrics,
		Gatherer:     a.Registry,
		Health:       a.ping,
	}), nil
}

func (a *App) ping(ctx context.Context) error {
	if a.mongo == nil {
		return nil
	}
	return a.mongo.Ping(ctx, nil)
}

// Close disconnects from the broker and the database.
func (a *App) Close(ctx context.Context) error {
	if a.mqtt != nil {
		a.mqtt.Disconnect(250)
	}
	if a.mongo != nil {
		return a.mongo.Disconnect(ctx)
	}
	return nil
}
