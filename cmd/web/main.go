// cmd/web/main.go
//
// Impact dashboard – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Connect to Vault when VAULT_ADDR is set; it resolves every `vault:`
//     value during config load.
//
//  3. Load config (.env, conf/global.yaml, IMPACT_* env) and start the
//     daily rotating file logger.
//
//  4. Build the form core: validation rules (optional YAML override),
//     validator, CSRF signer.
//
//  5. Build the REST client and the optimistic collections for projects,
//     donors, impact entries, and settings.
//
//  6. Open the draft store (memory, Redis, or MySQL).
//
//  7. Router: request metadata (UA, optional GeoLite2), security headers,
//     session user, /metrics, operational modules, then every registered
//     component.  ForceHTTPS wraps the lot.
//
//  8. Serve until SIGINT/SIGTERM; SIGHUP reloads config.  On shutdown every
//     open form session flushes its draft.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/impact/internal/auth"
	"github.com/yanizio/impact/internal/component"
	"github.com/yanizio/impact/internal/config"
	"github.com/yanizio/impact/internal/database"
	"github.com/yanizio/impact/internal/draft"
	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/logger"
	"github.com/yanizio/impact/internal/middleware"
	"github.com/yanizio/impact/internal/module"
	"github.com/yanizio/impact/internal/requestinfo"
	"github.com/yanizio/impact/internal/restapi"
	"github.com/yanizio/impact/internal/server"
	"github.com/yanizio/impact/internal/vault"

	_ "github.com/yanizio/impact/components/auth"
	_ "github.com/yanizio/impact/components/projects"
	_ "github.com/yanizio/impact/modules/debug"
)

const closeTimeout = 10 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Fatalw("impact stopped", "err", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Secrets + config ────────────────────────────────────────────
	//
	var secrets config.SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, zap.S())
		if err != nil {
			return fmt.Errorf("vault: %w", err)
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Root:       cfg.Paths.Root,
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console || runningInTTY(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  Form core ───────────────────────────────────────────────────
	//
	v, err := newValidator(cfg)
	if err != nil {
		return err
	}
	csrf, err := form.NewCSRF(cfg.Form.CSRFKey, cfg.Form.CSRFTTL)
	if err != nil {
		return fmt.Errorf("csrf: %w", err)
	}

	//
	// ── 3.  REST backend ────────────────────────────────────────────────
	//
	opts := []restapi.ClientOption{restapi.WithLogger(log)}
	if cfg.API.Token != "" {
		opts = append(opts, restapi.WithToken(cfg.API.Token))
	}
	api, err := restapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, opts...)
	if err != nil {
		return fmt.Errorf("rest client: %w", err)
	}

	//
	// ── 4.  Draft store ─────────────────────────────────────────────────
	//
	drafts, closeDrafts, err := openDraftStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDrafts(); err != nil {
			log.Warnw("draft store close failed", "err", err)
		}
	}()

	//
	// ── 5.  Request metadata ────────────────────────────────────────────
	//
	reqInfo, err := requestinfo.New(cfg.Paths.Abs(cfg.Geo.DBPath))
	if err != nil {
		return err
	}
	defer func() { _ = reqInfo.Close() }()

	deps := component.Deps{
		Config:    cfg,
		Validator: v,
		CSRF:      csrf,
		Drafts:    drafts,
		Projects:  restapi.NewCollection(restapi.NewResource[restapi.Project](api, "/projects"), nil),
		Donors:    restapi.NewCollection(restapi.NewResource[restapi.Donor](api, "/donors"), nil),
		Impacts:   restapi.NewCollection(restapi.NewResource[restapi.ImpactEntry](api, "/impacts"), nil),
		Settings:  restapi.NewCollection(restapi.NewResource[restapi.Setting](api, "/settings"), nil),
		Log:       log,
	}

	//
	// ── 6.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(reqInfo.Middleware, middleware.Security, auth.Middleware)
	r.Handle("/metrics", promhttp.Handler())
	module.Mount(r)
	if err := component.Mount(r, deps); err != nil {
		return err
	}

	srv := server.New(cfg.HTTP.ListenAddr, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r))

	//
	// ── 7.  Lifecycle ───────────────────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, srv) })
	g.Go(func() error {
		// Warm the project list so the first edit form opens fast.
		if err := deps.Projects.Refresh(gctx); err != nil {
			log.Warnw("project list warm-up failed", "err", err)
		}
		return nil
	})
	g.Go(func() error { return reloadOnHUP(gctx, secrets, log) })

	runErr := g.Wait()

	cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := component.CloseAll(cctx); err != nil {
		log.Warnw("component shutdown incomplete", "err", err)
	}
	log.Infow("impact stopped")
	return runErr
}

// newValidator builds the validator from the default rules, the optional
// override file, and the configured calendar.
func newValidator(cfg *config.Config) (*form.Validator, error) {
	rules := form.DefaultRules()
	if p := cfg.Paths.Abs(cfg.Form.RulesFile); p != "" {
		var err error
		if rules, err = form.LoadRules(p); err != nil {
			return nil, err
		}
		zap.S().Infow("validation rules loaded", "file", p)
	}

	var opts []form.ValidatorOption
	if tz := cfg.Form.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("form timezone %q: %w", tz, err)
		}
		opts = append(opts, form.WithLocation(loc))
	}
	return form.NewValidator(rules, opts...)
}

// openDraftStore returns the configured draft backend and its closer.
func openDraftStore(ctx context.Context, cfg *config.Config) (draft.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Draft.Backend {
	case "redis":
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		zap.S().Infow("draft store online", "backend", "redis", "addr", cfg.Redis.Addr)
		return draft.NewRedisStore(rc, cfg.Draft.TTL), rc.Close, nil

	case "sql":
		db, err := database.OpenWithOptions(ctx, cfg.Database.ResolvedDSN(), cfg.Database.MaxOpen, cfg.Database.MaxIdle)
		if err != nil {
			return nil, nil, err
		}
		store := draft.NewSQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		zap.S().Infow("draft store online", "backend", "sql")
		return store, db.Close, nil

	default:
		zap.S().Infow("draft store online", "backend", "memory")
		return draft.NewMemoryStore(), noop, nil
	}
}

// reloadOnHUP re-reads config on SIGHUP until ctx is done.  Only readers of
// config.Get() see the new values; listeners and stores keep their
// startup settings.
func reloadOnHUP(ctx context.Context, secrets config.SecretResolver, log *zap.SugaredLogger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := config.Reload(ctx, secrets); err != nil {
				log.Warnw("config reload failed", "err", err)
				continue
			}
			log.Infow("config reloaded")
		}
	}
}
