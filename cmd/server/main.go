package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inkpad/inkpad/internal/auth"
	"github.com/inkpad/inkpad/internal/board"
	"github.com/inkpad/inkpad/internal/collab"
	"github.com/inkpad/inkpad/internal/config"
	"github.com/inkpad/inkpad/internal/export"
	mw "github.com/inkpad/inkpad/internal/middleware"
	"github.com/inkpad/inkpad/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(db, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	boardService := board.NewService(db)
	boardHandler := board.NewHandler(boardService)

	hub := collab.NewHub(collab.SnapshotPersister{Store: db, Keep: cfg.SnapshotKeep}, cfg.SaveInterval)
	go hub.Run()

	wsHandler := collab.NewHandler(hub, authService, boardService, cfg.Origins())
	exportHandler := export.NewHandler(boardService, cfg.ExportMaxPixels)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/drawings", boardHandler.List).Methods("GET")
	api.HandleFunc("/drawings", boardHandler.Create).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}", boardHandler.Get).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}", boardHandler.Rename).Methods("PATCH")
	api.HandleFunc("/drawings/{drawingId}", boardHandler.Delete).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/invite", boardHandler.Invite).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}/members", boardHandler.ListMembers).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}/members/{userId}", boardHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/snapshots/latest", boardHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}/export", exportHandler.Export).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/drawing/{drawingId}", wsHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty drawings
		slog.Info("saving all drawings...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
