package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jobflow-engine/internal/autopilot"
	"jobflow-engine/internal/config"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/httpapi"
	"jobflow-engine/internal/metrics"
	"jobflow-engine/internal/pipeline"
	"jobflow-engine/internal/scheduler"
	"jobflow-engine/internal/secrets"
	"jobflow-engine/internal/store"
)

func main() {
	// The desktop shell passes JOBFLOW_DATA_DIR; otherwise state lives next to the binary.
	dataDir, err := config.DataDir()
	if err != nil {
		log.Fatal(err)
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, config.DefaultConfigPath())
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		if err := config.OverlayCompanies(&cfg, filepath.Join(dataDir, "companies.yml")); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	cfgVal.Store(cfg)
	currentCfg := func() config.Config { return cfgVal.Load().(config.Config) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := filepath.Join(dataDir, "jobflow.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	local := store.NewSQLiteStore(db.Pool)

	jobs, closeJobs, err := openJobStore(ctx, cfg, local)
	if err != nil {
		log.Fatalf("job store: %v", err)
	}
	defer closeJobs()

	hub := events.NewHub()
	publisher := events.Fanout{hub}
	if cfg.Events.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.Events.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		publisher = append(publisher, events.NewRedisPublisher(rdb, cfg.Events.RedisChannel))
		log.Printf("[events] mirroring to redis channel=%s", cfg.Events.RedisChannel)
	}

	m := metrics.New()

	svc := autopilot.New(autopilot.Options{
		Runner: autopilot.ConfigRunner{
			Builder: autopilot.Builder{Store: jobs, APIKey: secrets.GetOracleAPIKey},
			Config:  currentCfg,
		},
		Config:    currentCfg,
		History:   local,
		Publisher: publisher,
		Observers: func() []pipeline.Observer { return []pipeline.Observer{m.RunObserver()} },
		LockPath:  filepath.Join(dataDir, "pipeline.lock"),
		Context:   ctx,
	})

	sched := scheduler.New(local, svc)

	deps := httpapi.Deps{
		Jobs:        jobs,
		Alerts:      local,
		Runs:        local,
		Pipeline:    svc,
		Scheduler:   sched,
		Hub:         hub,
		Publisher:   publisher,
		Metrics:     m,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		SQLite:      db.Pool,
	}
	mux := httpapi.NewMux(deps)

	token, err := randomToken(32)
	if err != nil {
		log.Fatal(err)
	}
	tokenPath := filepath.Join(dataDir, "shutdown.token")
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		log.Fatal(err)
	}
	defer os.Remove(tokenPath)
	mux.HandleFunc("/shutdown", shutdownHandler(token, stop))

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s store=%s)", addr, dbPath, cfg.Store.Driver)

	srv := &http.Server{
		Handler:           httpapi.Wrap(mux, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hub.Close() // ends open SSE streams so Shutdown can drain
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("engine stopped with error: %v", err)
	}
	sched.Stop()
	svc.Wait()
	log.Println("engine stopped")
}
