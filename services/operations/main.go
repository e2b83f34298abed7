package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/bootheat/pkg"
	"github.com/appetiteclub/bootheat/pkg/event"

	"github.com/appetiteclub/bootheat/services/operations/internal/operations"
)

const (
	appNamespace = "OPERATIONS"
	appName      = "operations"
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

	tz := config.GetStringOrDef("board.timezone", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("%s(%s) cannot load timezone %s: %v", appName, appVersion, tz, err)
	}

	orderURL, _ := config.GetString("services.order.url")
	httpTimeout := duration(config, "http.timeout", operations.DefaultHTTPTimeout)

	store, err := operations.NewOrderStoreClient(orderURL, httpTimeout, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot create order service client: %v", appName, appVersion, err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var orderEvents events.Subscriber
	var closeEvents func() error

	// The durable consumer resumes where the last run stopped, so boards
	// cached right after a restart still see what changed meanwhile.
	if durable, _ := strconv.ParseBool(config.GetStringOrDef("nats.durable", "true")); durable {
		orderStream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   event.OrdersStream,
			Topic:        event.OrdersTopic,
			ConsumerName: appName + "-board",
			MaxAge:       24 * time.Hour,
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot create order event stream: %v", appName, appVersion, err)
		}
		orderStream.OnError = func(err error) {
			logger.Error("order event handling failed", "error", err)
		}
		orderEvents, closeEvents = orderStream, orderStream.Close
	} else {
		sub, err := pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot subscribe to order events: %v", appName, appVersion, err)
		}
		sub.OnError = func(topic string, err error) {
			logger.Error("order event handling failed", "topic", topic, "error", err)
		}
		orderEvents, closeEvents = sub, sub.Close
	}

	bucket := config.GetStringOrDef("orderids.bucket", operations.DefaultOrderIDsBucket)
	kv, err := pkg.NewNATSKeyValue(ctx, natsURL, bucket)
	if err != nil {
		log.Fatalf("%s(%s) cannot bind order id bucket: %v", appName, appVersion, err)
	}

	boardRefresh := duration(config, "board.refresh", operations.DefaultBoardRefresh)
	pollInterval := duration(config, "poll.interval", operations.DefaultPollInterval)

	cache := operations.NewBoardCache(boardRefresh, loc)
	aggregator := operations.NewAggregator(store, loc, logger)
	dashboard := operations.NewDashboard(aggregator, cache, logger)
	statusController := operations.NewStatusController(store, cache, logger)
	poller := operations.NewApprovalPoller(store, pollInterval, logger)
	orderIDs := operations.NewOrderIDStore(kv, logger)

	subscriber := operations.NewOrderEventSubscriber(orderEvents, cache, poller, logger)

	hd := operations.HandlerDeps{
		Store:     store,
		Dashboard: dashboard,
		Status:    statusController,
		Poller:    poller,
		OrderIDs:  orderIDs,
	}

	handler := operations.NewHandler(hd, config, logger)

	health := pkg.NewHealthServer(appName)

	orderIDsLifecycle := apt.LifecycleHooks{
		OnStart: orderIDs.Load,
		OnStop: func(context.Context) error {
			return kv.Close()
		},
	}

	streamLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return closeEvents()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false,
	})

	lifecycles := []interface{}{
		orderIDsLifecycle,
		subscriber,
		streamLifecycle,
		health,
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
	logger.Infof("Starting %s(%s), board refresh %s, poll interval %s", appName, appVersion, boardRefresh, pollInterval)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func duration(config *apt.Config, key string, def time.Duration) time.Duration {
	raw, _ := config.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("%s(%s) ignoring invalid %s %q, using %s", appName, appVersion, key, raw, def)
		return def
	}
	return d
}
