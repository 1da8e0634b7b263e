package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	carthttp "github.com/dwikikusuma/storefront/internal/cart/httpapi"
	cartadapter "github.com/dwikikusuma/storefront/internal/cart/infra/adapter"
	cartmemory "github.com/dwikikusuma/storefront/internal/cart/infra/memory"
	"github.com/dwikikusuma/storefront/internal/cart/infra/pricingfile"
	cartredis "github.com/dwikikusuma/storefront/internal/cart/infra/redis"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	cataloghttp "github.com/dwikikusuma/storefront/internal/catalog/httpapi"
	catalogsqlite "github.com/dwikikusuma/storefront/internal/catalog/infra/sqlite"

	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	checkouthttp "github.com/dwikikusuma/storefront/internal/checkout/httpapi"
	checkoutadapter "github.com/dwikikusuma/storefront/internal/checkout/infra/adapter"

	orderapp "github.com/dwikikusuma/storefront/internal/order/app"
	orderhttp "github.com/dwikikusuma/storefront/internal/order/httpapi"
	ordersqlite "github.com/dwikikusuma/storefront/internal/order/infra/sqlite"

	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/dwikikusuma/storefront/pkg/telemetry"
)

const serviceName = "storefront-api"

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "api", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:  cfg.OTelEnabled,
		Endpoint: cfg.OTelEndpoint,
		Service:  serviceName,
		Env:      cfg.AppEnv,
	})
	if err != nil {
		log.Error("telemetry init failed", slog.Any("err", err))
		os.Exit(1)
	}

	pricing, err := pricingfile.Load(cfg.PricingFile)
	if err != nil {
		log.Error("pricing load failed", slog.Any("err", err), slog.String("path", cfg.PricingFile))
		os.Exit(1)
	}

	db := mustDB(log, cfg.SQLitePath)
	defer db.Close()

	// Catalog
	productRepo := catalogsqlite.NewProductRepo(db)
	mustMigrate(ctx, log, "products", productRepo.Migrate)
	catalogSvc := catalogapp.NewService(productRepo, catalogapp.WithCategories(catalogsqlite.NewCategoryRepo(db)))

	// Cart
	cartRepo, closeCart := mustCartRepo(ctx, log, cfg)
	defer closeCart()
	cartSvc := cartapp.NewService(cartRepo,
		cartapp.WithCatalog(cartadapter.NewCatalogServiceReader(catalogSvc, pricing.Currency)),
		cartapp.WithPricing(pricing),
		cartapp.WithLogger(log),
	)

	// Order
	orderRepo := ordersqlite.NewOrderRepo(db)
	mustMigrate(ctx, log, "orders", orderRepo.Migrate)
	orderSvc := orderapp.NewService(orderRepo)

	// Checkout (adapters)
	checkoutSvc := checkoutapp.NewService(
		checkoutadapter.NewCartServiceReader(cartSvc),
		checkoutadapter.NewCatalogServiceReader(catalogSvc),
		checkoutadapter.NewOrderServiceWriter(orderSvc),
		checkoutapp.Options{
			MaxConcurrent:   cfg.CheckoutMaxConcurrent,
			RevalidateStock: cfg.CheckoutRevalidateStock,
			Logger:          log,
		},
	)

	router := mux.NewRouter()
	router.Use(otelmux.Middleware(serviceName), httpx.Logging(log))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.HandleFunc("/readyz", readyz(db, cartSvc))
	cataloghttp.NewHandler(catalogSvc).Register(router)
	carthttp.NewHandler(cartSvc, log).Register(router)
	checkouthttp.NewHandler(checkoutSvc, log).Register(router)
	orderhttp.NewHandler(orderSvc).Register(router)

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", grpcAddr))
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("grpc starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc serve error", slog.Any("err", err))
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")
	healthSrv.Shutdown()

	shutdown.Run(log, 10*time.Second,
		shutdown.Step{Name: "http", Stop: httpServer.Shutdown},
		shutdown.Step{Name: "grpc", Stop: func(ctx context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(stopped)
			}()
			select {
			case <-ctx.Done():
				log.Warn("graceful stop timeout, forcing stop")
				grpcServer.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		}},
		shutdown.Step{Name: "tracing", Stop: shutdownTracing},
	)

	wg.Wait()
	log.Info("bye")
}

func mustDB(log *slog.Logger, path string) *sql.DB {
	db, err := sqlite.Open(sqlite.Config{Path: path})
	if err != nil {
		log.Error("db open failed", slog.Any("err", err), slog.String("path", path))
		os.Exit(1)
	}
	return db
}

func mustMigrate(ctx context.Context, log *slog.Logger, name string, migrate func(context.Context) error) {
	if err := migrate(ctx); err != nil {
		log.Error("migration failed", slog.String("schema", name), slog.Any("err", err))
		os.Exit(1)
	}
}

func mustCartRepo(ctx context.Context, log *slog.Logger, cfg config.Config) (cartapp.CartRepo, func()) {
	switch cfg.CartStore {
	case "memory":
		log.Info("cart store: memory")
		return cartmemory.NewCartRepo(), func() {}
	case "redis":
		repo := cartredis.NewCartRepo(cartredis.Config{Addr: cfg.RedisAddr, TTL: cfg.CartTTL}, log)
		if err := repo.Initialize(ctx, 8); err != nil {
			log.Error("redis init failed", slog.Any("err", err), slog.String("addr", cfg.RedisAddr))
			os.Exit(1)
		}
		log.Info("cart store: redis", slog.String("addr", cfg.RedisAddr))
		return repo, func() { _ = repo.Close() }
	default:
		log.Error("unknown cart store", slog.String("store", cfg.CartStore))
		os.Exit(1)
		return nil, nil
	}
}

func readyz(db *sql.DB, carts *cartapp.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil || !carts.Ping(ctx) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
