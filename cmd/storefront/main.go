package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/config"
	"github.com/DRIVN-COOK/front-office/internal/discovery"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/identity"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
	"github.com/DRIVN-COOK/front-office/internal/ordering"
)

const usage = `usage: storefront <command> [flags]

commands:
  menu    [-page N] [-size N] [-all]       list the menu
  cart    [show|add <id> [qty]|remove <id>|qty <id> <n>|clear]
  order   [scope flags]                    place the cart as an order, pay at pickup
  pay     [-mode embedded|hosted] [scope flags]
                                           place the cart and pay now
  orders  [-status S] [-page N] [-size N]  list my orders
  show    <orderId>                        show one order
  watch                                    live cart view
  serve                                    run the HTTP gateway

scope flags: -franchisee ID -truck ID -warehouse ID override the configured outlet
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, "storefront", cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "menu":
		return a.menu(ctx, rest, out)
	case "cart":
		return a.cart(ctx, rest, out)
	case "order":
		return a.order(ctx, rest, out)
	case "pay":
		return a.pay(ctx, rest, out)
	case "orders":
		return a.orders(ctx, rest, out)
	case "show":
		return a.show(ctx, rest, out)
	case "watch":
		return a.watch(ctx)
	case "serve":
		return a.serve(ctx)
	default:
		return errUsage
	}
}

// app holds what every command needs.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	client    *api.Client
	store     *cart.Store
	identity  *identity.Resolver
	submitter *ordering.Submitter
	closers   []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	baseURL, err := a.backendURL()
	if err != nil {
		return nil, err
	}
	a.client = api.NewClient(api.Options{
		BaseURL:     baseURL,
		AccessToken: cfg.AccessToken,
		Timeout:     cfg.RequestTimeout,
		Metrics:     a.metrics,
		Logger:      log,
	})

	storage, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store, err = cart.NewStore(ctx, storage, cfg.CartKey, cart.WithLogger(log), cart.WithMetrics(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.wireOrdering()

	return a, nil
}

// wireOrdering builds the identity resolver and submitter from the current
// configuration.
func (a *app) wireOrdering() {
	var profiles identity.ProfileSource
	if a.cfg.AccessToken != "" {
		profiles = a.client
	}
	a.identity = identity.NewResolver(a.cfg.AccessToken, a.cfg.CustomerID, domain.Scope{
		FranchiseeID: a.cfg.FranchiseeID,
		TruckID:      a.cfg.TruckID,
		WarehouseID:  a.cfg.WarehouseID,
	}, profiles, a.log)
	a.submitter = ordering.NewSubmitter(a.client, a.identity, a.cfg.CompensatePartialOrders, a.log)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) backendURL() (string, error) {
	if !a.cfg.UseConsul() {
		return a.cfg.BackendURL, nil
	}
	client, err := discovery.NewClient(a.cfg.ConsulAddr)
	if err != nil {
		return "", err
	}
	url, err := discovery.BackendURL(client, a.cfg.BackendService, a.cfg.BackendPath)
	if err != nil {
		return "", err
	}
	a.log.Debug("backend resolved through consul", slog.String("url", url))
	return url, nil
}

func (a *app) openStorage(ctx context.Context) (cart.Storage, error) {
	switch a.cfg.CartStore {
	case config.CartStoreRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return cart.NewRedisStorage(client), nil

	case config.CartStoreMongo:
		db, err := cart.ConnectMongoDB(ctx, a.cfg.MongoURI, a.cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := db.Client().Disconnect(ctx); err != nil {
				a.log.Warn("mongo disconnect failed", logger.Err(err))
			}
		})
		return cart.NewMongoStorage(db), nil

	default:
		return cart.NewFileStorage(a.cfg.CartDir), nil
	}
}
