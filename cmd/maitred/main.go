package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maitred/internal/api"
	"maitred/internal/assistant"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/invoice"
	"maitred/internal/monitoring"
	"maitred/internal/poller"
	"maitred/internal/server"
	"maitred/internal/storage"
)

var (
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	port        = flag.Int("port", 0, "API server port (overrides server.port)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides metrics.port)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [login <email> <password> | logout]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.Metrics.Port = *metricsPort
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.InitDB(cfg.Storage.Driver, cfg.Storage.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	store, err := storage.NewStore(database.GetDB())
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	session := storage.NewSession(store)

	metrics := monitoring.NewMetrics()
	client, err := api.NewClient(cfg.Backend.BaseURL, session,
		api.WithTimeout(cfg.Backend.Timeout),
		api.WithRestaurantCache(session, cfg.Dashboard.CacheTTL),
		api.WithObserver(metrics),
	)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "login":
		if flag.NArg() != 3 {
			flag.Usage()
			os.Exit(2)
		}
		if err := login(ctx, client, session, flag.Arg(1), flag.Arg(2)); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		return
	case "logout":
		if err := session.Logout(); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		log.Println("Signed out")
		return
	case "":
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err := serve(ctx, cfg, client, metrics); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func login(ctx context.Context, client *api.Client, session *storage.Session, email, password string) error {
	res, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := session.SaveLogin(res.Token, res.User); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	log.Printf("Signed in as %s (%s)", res.User.Name, res.User.Role)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, client *api.Client, metrics *monitoring.Metrics) error {
	monitor := monitoring.NewMonitor()
	srv, err := newServer(cfg, client, monitor, metrics)
	if err != nil {
		return err
	}

	if cfg.Dashboard.RestaurantSlug != "" {
		p, err := poller.New(cfg.Dashboard.PollInterval, srv.RefreshOrders, poller.OnResult(monitor.RecordPoll))
		if err != nil {
			return err
		}
		srv.SetPoller(p)
		go p.Run(ctx)
	} else {
		log.Println("No restaurant slug configured, order polling disabled")
	}

	if cfg.Metrics.Enabled {
		go startMetricsServer(ctx, cfg.Metrics, metrics)
	}

	return srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
}

// newServer builds the dashboard server with the optional pieces the
// configuration enables
func newServer(cfg *config.Config, backend server.Backend, monitor *monitoring.Monitor, metrics *monitoring.Metrics) (*server.Server, error) {
	taxRate, err := invoice.ParseTaxRate(cfg.Dashboard.TaxRate)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithMonitor(monitor),
		server.WithMetrics(metrics),
	}
	if cfg.Renderer.URL != "" {
		opts = append(opts, server.WithRenderer(invoice.NewHTTPRenderer(cfg.Renderer.URL, cfg.Renderer.Timeout)))
	} else {
		log.Println("No renderer configured, invoice PDF export disabled")
	}
	if cfg.Assistant.Enabled {
		model, err := assistant.NewModel(cfg.Assistant)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize reply assistant: %w", err)
		}
		opts = append(opts, server.WithDrafter(assistant.NewDrafter(model)))
	}

	return server.New(server.Config{
		RestaurantSlug: cfg.Dashboard.RestaurantSlug,
		TaxRate:        taxRate,
		JWTSecret:      cfg.Server.JWTSecret,
	}, backend, opts...), nil
}

func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, metrics *monitoring.Metrics) {
	metricsRouter := gin.New()
	metricsRouter.GET(cfg.Path, gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: metricsRouter,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting metrics server on port %d", cfg.Port)
	if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Metrics server error: %v", err)
	}
}
