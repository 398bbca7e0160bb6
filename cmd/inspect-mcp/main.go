// Command inspect-mcp is the DOM element inspection server.
//
// Usage:
//
//	inspect-mcp                                      # MCP over stdio, local Chrome
//	inspect-mcp -config inspect.yaml                 # with config file
//	inspect-mcp -http :8089                          # MCP over streamable HTTP
//	inspect-mcp -url https://example.com -selector h1  # one-shot inspection to stdout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/ofriw/inspect-mcp/audit"
	"github.com/ofriw/inspect-mcp/browser"
	"github.com/ofriw/inspect-mcp/config"
	"github.com/ofriw/inspect-mcp/dbopen"
	"github.com/ofriw/inspect-mcp/inspector"
	"github.com/ofriw/inspect-mcp/kit"
)

const (
	serverName    = "inspect-mcp"
	serverVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "path to inspect-mcp YAML config file")
	httpListen := flag.String("http", "", "serve MCP over streamable HTTP on this address instead of stdio")
	remoteURL := flag.String("remote", "", "WebSocket URL of a running Chrome instance (empty launches one)")
	oneshotURL := flag.String("url", "", "one-shot mode: page URL to inspect")
	oneshotSelector := flag.String("selector", "", "one-shot mode: CSS selector to inspect")
	screenshotPath := flag.String("screenshot", "", "one-shot mode: write the annotated screenshot to this file")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *httpListen != "" {
		cfg.HTTP.Listen = *httpListen
	}
	if *remoteURL != "" {
		cfg.Browser.RemoteURL = *remoteURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	// Logs go to stderr: stdout belongs to the stdio MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *oneshotURL, *oneshotSelector, *screenshotPath); err != nil {
		logger.Error("inspect-mcp: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, oneshotURL, oneshotSelector, screenshotPath string) error {
	mgr := browser.NewManager(browser.Config{
		RemoteURL:         cfg.Browser.RemoteURL,
		Headless:          cfg.Browser.Headless,
		NavigationTimeout: cfg.Browser.NavigationTimeout(),
		Logger:            logger,
	})
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()
	if err := mgr.WaitReady(ctx, 10*time.Second); err != nil {
		return err
	}

	ins := inspector.New(inspector.Config{
		DocumentRetries:   cfg.Inspector.DocumentRetries,
		RetryBackoff:      cfg.Inspector.RetryBackoff(),
		SettleAfterScroll: cfg.Inspector.SettleAfterScroll(),
		SettleAfterZoom:   cfg.Inspector.SettleAfterZoom(),
		Logger:            logger,
	})

	var rec inspector.Recorder
	if cfg.Audit.Enabled {
		db, err := dbopen.Open(cfg.Audit.DBPath,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(audit.Schema),
		)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer db.Close()

		al := audit.New(db, 256, audit.WithLogger(logger))
		defer al.Close()

		retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
		if n, err := al.Cleanup(ctx, retention); err != nil {
			logger.Warn("inspect-mcp: audit cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("inspect-mcp: audit cleanup", "removed", n)
		}
		rec = al
	}

	svc := inspector.NewService(ins, mgr, rec, logger)

	if oneshotURL != "" || oneshotSelector != "" {
		if oneshotURL == "" || oneshotSelector == "" {
			return fmt.Errorf("one-shot mode needs both -url and -selector")
		}
		return runOneShot(ctx, svc, oneshotURL, oneshotSelector, screenshotPath)
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	svc.RegisterMCP(srv)

	if cfg.HTTP.Listen != "" {
		return runHTTP(ctx, logger, srv, cfg.HTTP.Listen)
	}

	logger.Info("inspect-mcp: serving MCP on stdio")
	return srv.Run(kit.WithTransport(ctx, "stdio"), &mcp.StdioTransport{})
}

// runOneShot performs a single inspection and prints the JSON result to
// stdout, optionally writing the annotated screenshot next to it.
func runOneShot(ctx context.Context, svc *inspector.Service, url, selector, screenshotPath string) error {
	res, err := svc.Inspect(ctx, &inspector.InspectArgs{
		CSSSelector: selector,
		URL:         url,
	})
	if err != nil {
		return err
	}

	var payload any
	if res.Single != nil {
		payload = res.Single
	} else {
		payload = res.Multi
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	os.Stdout.Write(data)
	os.Stdout.Write([]byte("\n"))

	if screenshotPath != "" {
		if err := os.WriteFile(screenshotPath, res.PNG(), 0o644); err != nil {
			return fmt.Errorf("write screenshot: %w", err)
		}
	}
	return nil
}

// kitContext carries transport metadata into the tool handler context:
// the transport name, the remote address, and chi's request id.
func kitContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)
		if id := middleware.GetReqID(r.Context()); id != "" {
			ctx = kit.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// runHTTP serves MCP over the streamable HTTP transport with a health
// endpoint, shutting down cleanly on context cancellation.
func runHTTP(ctx context.Context, logger *slog.Logger, srv *mcp.Server, listen string) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/mcp", kitContext(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)))

	hs := &http.Server{Addr: listen, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspect-mcp: serving MCP over HTTP", "addr", listen)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
