package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/assistant"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/session"
	"github.com/vantage-os/vantage-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := newRouter(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *appEnv) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/bills", handleListBills(env))
		r.Post("/bills/sync", handleSyncBills(env))
		r.Get("/bills/{id}", handleGetBill(env))
		r.Post("/bills/{id}/scan", handleScan(env))
		r.Post("/bills/{id}/documents", handleAddDocument(env))
		r.Post("/bills/{id}/documents/{docID}/import", handleImport(env))
		r.Post("/bills/{id}/chat", handleChat(env))
		r.Get("/feeds", handleFeeds(env))
		r.Get("/agenda", handleAgenda(env))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStatus reports a failed operation as a short status message rather
// than a bare 500.
func writeStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": msg})
}

// openWorkspace reuses the bill's live workspace or opens one.
func openWorkspace(env *appEnv, r *http.Request) (*session.Workspace, error) {
	billID := chi.URLParam(r, "id")
	if ws, ok := env.Manager.Get(billID); ok {
		return ws, nil
	}
	return env.Manager.Open(r.Context(), billID)
}

func handleListBills(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bills, err := env.Store.ListBills(r.Context(), store.BillFilter{
			Status:    r.URL.Query().Get("status"),
			Committee: r.URL.Query().Get("committee"),
		})
		if err != nil {
			zap.L().Error("list bills failed", zap.Error(err))
			writeStatus(w, http.StatusInternalServerError, "Could not load bills.")
			return
		}
		if bills == nil {
			bills = []model.Bill{}
		}
		writeJSON(w, http.StatusOK, bills)
	}
}

func handleSyncBills(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bills, err := env.Manager.SyncBills(r.Context())
		if err != nil {
			zap.L().Error("bill sync failed", zap.Error(err))
			writeStatus(w, http.StatusBadGateway, "Sheet sync failed.")
			return
		}
		writeJSON(w, http.StatusOK, bills)
	}
}

func handleGetBill(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bill, err := env.Store.GetBill(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStatus(w, http.StatusInternalServerError, "Could not load bill.")
			return
		}
		if bill == nil {
			writeStatus(w, http.StatusNotFound, "Bill not found.")
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func handleScan(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := openWorkspace(env, r)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeStatus(w, http.StatusNotFound, "Bill not found.")
				return
			}
			writeStatus(w, http.StatusInternalServerError, "Scan failed.")
			return
		}

		inserted, err := ws.Scan()
		if err != nil {
			writeStatus(w, http.StatusConflict, "Scan failed.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"inserted": inserted,
			"bill":     ws.Bill(),
		})
	}
}

func handleAddDocument(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Type    string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Content == "" {
			writeStatus(w, http.StatusBadRequest, "Document content is required.")
			return
		}

		ws, err := openWorkspace(env, r)
		if err != nil {
			writeStatus(w, http.StatusNotFound, "Bill not found.")
			return
		}

		doc := ws.AddManualDocument(req.Title, req.Content, model.DocType(req.Type))
		writeJSON(w, http.StatusCreated, doc)
	}
}

func handleImport(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := openWorkspace(env, r)
		if err != nil {
			writeStatus(w, http.StatusNotFound, "Bill not found.")
			return
		}

		if err := ws.ImportDocument(chi.URLParam(r, "docID")); err != nil {
			zap.L().Warn("document import failed",
				zap.String("bill", chi.URLParam(r, "id")),
				zap.String("doc", chi.URLParam(r, "docID")),
				zap.Error(err),
			)
			writeStatus(w, http.StatusBadGateway, "Could not import document text.")
			return
		}
		writeJSON(w, http.StatusOK, ws.Bill())
	}
}

func handleChat(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string   `json:"question"`
			Role     string   `json:"role"`
			Select   []string `json:"select"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Question == "" {
			writeStatus(w, http.StatusBadRequest, "Question is required.")
			return
		}

		ws, err := openWorkspace(env, r)
		if err != nil {
			writeStatus(w, http.StatusNotFound, "Bill not found.")
			return
		}
		for _, id := range req.Select {
			ws.ToggleSelect(id)
		}

		answer, err := ws.Ask(req.Question, assistant.Role(req.Role))
		if err != nil {
			writeStatus(w, http.StatusBadGateway, "I'm having trouble connecting.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"answer": answer,
			"chat":   ws.Chat(),
		})
	}
}

func handleFeeds(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, env.Feeds.FetchAll(r.Context()))
	}
}

func handleAgenda(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meetings, err := env.Agenda.Upcoming(r.Context())
		if err != nil {
			zap.L().Error("agenda lookup failed", zap.Error(err))
			writeStatus(w, http.StatusBadGateway, "Could not load committee schedule.")
			return
		}
		if meetings == nil {
			meetings = []model.Meeting{}
		}
		writeJSON(w, http.StatusOK, meetings)
	}
}
