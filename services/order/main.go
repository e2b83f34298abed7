package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/bootheat/pkg"
	"github.com/appetiteclub/bootheat/pkg/event"

	"github.com/appetiteclub/bootheat/services/order/internal/mongo"
	"github.com/appetiteclub/bootheat/services/order/internal/order"
)

const (
	appNamespace = "ORDER"
	appName      = "order"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	tz := config.GetStringOrDef("stats.timezone", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("%s(%s) cannot load timezone %s: %v", appName, appVersion, tz, err)
	}

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.Database()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	tableRepo := mongo.NewTableRepo(db)
	visitRepo := mongo.NewVisitRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)
	boothAccountRepo := mongo.NewBoothAccountRepo(db)

	err = baseRepo.EnsureIndexes(ctx, tableRepo, visitRepo, orderRepo, menuItemRepo)
	if err != nil {
		log.Fatalf("%s(%s) cannot ensure indexes: %v", appName, appVersion, err)
	}

	repos := order.Repos{
		Sequencer:        mongo.NewSequencer(db),
		TableRepo:        tableRepo,
		VisitRepo:        visitRepo,
		OrderRepo:        orderRepo,
		MenuItemRepo:     menuItemRepo,
		BoothAccountRepo: boothAccountRepo,
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	// Order and visit events go through JetStream so the dashboard can
	// replay what it missed; menu events are fire and forget.
	orderStream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
		URL:        natsURL,
		StreamName: event.OrdersStream,
		Topic:      event.OrdersTopic,
		MaxAge:     24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("%s(%s) cannot create order event stream: %v", appName, appVersion, err)
	}

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	streamLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return orderStream.Close()
		},
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	hd := order.HandlerDeps{
		Repos:         repos,
		Publisher:     orderStream,
		MenuPublisher: pub,
		Location:      loc,
	}

	handler := order.NewHandler(hd, config, logger)

	health := pkg.NewHealthServer(appName)

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled for order service")
		seedHooks = apt.LifecycleHooks{
			OnStart: order.DemoSeedingFunc(seedCtx, repos, db, loc, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})

	// Restrict to internal networks; the storefront reaches this service
	// through the gateway.
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		streamLifecycle,
		publisherLifecycle,
		health,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithGRPCServerModules("grpc.port", health),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s) in %s", appName, appVersion, loc)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
