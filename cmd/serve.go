package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/staging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status and match-trigger HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/{domain}/{subjectID}/status", func(w http.ResponseWriter, req *http.Request) {
			domain, subjectID, ok := pathParams(w, req)
			if !ok {
				return
			}

			dcfg, err := staging.ConfigFor(domain)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			rows, err := staging.NewPostgresStore(env.Pool, dcfg).ListBySubject(req.Context(), subjectID)
			if err != nil {
				zap.L().Error("status lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}

			counts := map[string]int{}
			for _, row := range rows {
				counts[string(row.MatchingStatus)]++
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"domain":     domain,
				"subject_id": subjectID,
				"rows":       len(rows),
				"by_status":  counts,
			})
		})

		r.Post("/api/{domain}/{subjectID}/match", func(w http.ResponseWriter, req *http.Request) {
			domain, subjectID, ok := pathParams(w, req)
			if !ok {
				return
			}

			lc, err := env.lifecycleFor(domain, false)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}

			// Fire and forget; progress lands in the staging table.
			go func() {
				counts, err := lc.Match(ctx, staging.MatchOptions{SubjectID: &subjectID})
				if err != nil {
					zap.L().Error("triggered match failed",
						zap.String("domain", string(domain)),
						zap.Int64("subject_id", subjectID),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("triggered match complete",
					zap.String("domain", string(domain)),
					zap.Int64("subject_id", subjectID),
					zap.Int("matched", counts.Matched),
					zap.Int("errors", counts.Errors),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]any{
				"status":     "accepted",
				"domain":     domain,
				"subject_id": subjectID,
			})
		})

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
			_ = srv.Shutdown(ctx)
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

func pathParams(w http.ResponseWriter, req *http.Request) (domain model.Domain, subjectID int64, ok bool) {
	d, err := parseDomain(chi.URLParam(req, "domain"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(req, "subjectID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subject id"})
		return "", 0, false
	}
	return d, id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
