package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbolis/national-dialog/app"
	"github.com/mbolis/national-dialog/catalog"
	"github.com/mbolis/national-dialog/config"
	"github.com/mbolis/national-dialog/database"
	"github.com/mbolis/national-dialog/log"
	"github.com/mbolis/national-dialog/routes"
	"github.com/mbolis/national-dialog/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("main.dotenv:", err)
	}

	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cat, err := catalog.Load(cfg.FormsFile)
	if err != nil {
		log.Fatal("main.catalog:", err)
	}

	stores, db, err := openStores(cfg)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	if db != nil {
		defer db.Close()
	}

	app, err := app.New(cfg, stores, cat, time.Now)
	if err != nil {
		log.Fatal("main.app:", err)
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func openStores(cfg config.Config) (store.Stores, *sql.DB, error) {
	if cfg.Store == config.StoreJSON {
		stores, err := store.OpenFiles(cfg.DataDir)
		return stores, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBUrl), 0o755); err != nil {
		return store.Stores{}, nil, err
	}
	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		return store.Stores{}, nil, err
	}
	stores, err := store.OpenSQL(db, cfg.DataDir)
	if err != nil {
		db.Close()
		return store.Stores{}, nil, err
	}
	return stores, db, nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("main.server.shutdown: %s", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
