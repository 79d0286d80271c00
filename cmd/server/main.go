package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/api/middleware"
	route "github.com/bassista/go_quill/internal/api/route"
	appctx "github.com/bassista/go_quill/internal/app"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/enrichman/httpgrace"
)

func main() {
	mainLog := logger.WithComponent("main")

	cfg, err := config.LoadConfig()
	if err != nil {
		mainLog.Fatalf("configuration error: %v", err)
	}

	if err := logger.SetLevel(cfg.Misc.LogLevel); err != nil {
		mainLog.Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
	}
	logger.SetFormat(cfg.Misc.LogFormat)
	mainLog.Debugf("log level set to: %s", logger.Logger.GetLevel())
	mainLog.Infof("App will run on port: %d", cfg.Server.Port)

	db, err := repository.Open(cfg.Data.DatabasePath)
	if err != nil {
		mainLog.Fatalf("cannot open database: %v", err)
	}

	repo, err := settings.NewFileRepository(cfg.Data.SettingsFilePath)
	if err != nil {
		mainLog.Fatalf("cannot init settings repository: %v", err)
	}
	doc, err := repo.Load(context.Background())
	if err != nil {
		mainLog.Fatalf("cannot load settings file: %v", err)
	}

	suggester, err := ai.New(context.Background(), ai.Options{
		APIKey:        cfg.AI.APIKey,
		SuggestModel:  cfg.AI.SuggestModel,
		GenerateModel: cfg.AI.GenerateModel,
		Temperature:   cfg.AI.Temperature,
	})
	if err != nil {
		mainLog.Warnf("AI disabled: %v", err)
		suggester = ai.Noop{}
	}

	app, err := appctx.New(cfg, db, repo, settings.NewStore(*doc), suggester)
	if err != nil {
		mainLog.Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		mainLog.Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := newEngine(app, reg, middleware.HoneybadgerConfig{
		APIKey: os.Getenv("HONEYBADGER_API_KEY"),
		Env:    os.Getenv("GO_ENV"),
	})
	srv := createGraceHttpServer(app.BaseCtx, "main-server", cfg.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLog.Error(err)
	}
}

// newEngine builds the gin engine with the global middleware chain and
// every route registered.
func newEngine(app *appctx.App, reg *prometheus.Registry, hb middleware.HoneybadgerConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(hb, logger.WithComponent("honeybadger")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(app.Config.Server.CORSAllowedOrigins))
	r.Use(middleware.NewHTTPMetrics(reg).Handler())

	route.SetupRoutes(r, app, reg)
	return r
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
