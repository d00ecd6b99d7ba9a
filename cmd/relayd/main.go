package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/astromechza/docrelay/pkg/bridge"
	"github.com/astromechza/docrelay/pkg/relay"
	"github.com/astromechza/docrelay/pkg/store"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mainInner() error {
	addrVar := flag.String("addr", envOr("RELAY_ADDR", "localhost:8080"), "the address to listen on")
	dbVar := flag.String("db", envOr("RELAY_DB", "relay.sqlite3"), "path to the sqlite database")
	redisVar := flag.String("redis", os.Getenv("REDIS_ADDR"), "redis address for cross-instance fan-out (empty disables)")
	pingVar := flag.Duration("ping-interval", 0, "websocket ping interval (0 disables liveness pings)")
	flag.Parse()

	slog.Info("Opening database", "path", *dbVar)
	db, err := sql.Open("sqlite3", *dbVar)
	if err != nil {
		return err
	}
	defer db.Close()

	documents := store.New(db)
	if err := documents.Init(context.Background()); err != nil {
		return err
	}

	rel := relay.New(slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := new(sync.WaitGroup)

	if *redisVar != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: *redisVar})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		br := bridge.New(rdb, rel, slog.Default())
		rel.SetPublisher(br)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := br.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("bridge exited", "err", err)
			}
		}()
		slog.Info("Connected to redis", "addr", *redisVar)
	}

	api := &api{documents: documents, relay: rel}

	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, writer, request)
			slog.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
		})
	})

	r.Methods(http.MethodGet).Path("/documents").HandlerFunc(api.listDocuments)
	r.Methods(http.MethodPost).Path("/documents").HandlerFunc(api.createDocument)
	r.Methods(http.MethodGet).Path("/documents/{id}").HandlerFunc(api.getDocument)
	r.Methods(http.MethodPut).Path("/documents/{id}").HandlerFunc(api.putDocument)
	r.Methods(http.MethodGet).Path("/documents/{id}/presence").HandlerFunc(api.getPresence)
	r.Path("/ws").Handler(relay.NewHandler(rel, slog.Default(), *pingVar))

	httpServer := &http.Server{Addr: *addrVar, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("Listening", "addr", *addrVar)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server listen failed", "err", err)
		}
	}()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exit
	slog.Info("Signal caught", "sig", sig)
	cancel()
	_ = httpServer.Close()

	wg.Wait()
	return nil
}
