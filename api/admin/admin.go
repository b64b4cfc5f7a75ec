// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/api/utils"
	"github.com/computemarket/capstake/log"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsRequest struct {
	Enabled bool `json:"enabled"`
}

type apiLogsResponse struct {
	Enabled bool `json:"enabled"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

// New returns the admin router, mounted under /admin.
func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *Health) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, &logLevelResponse{CurrentLevel: logLevel.Level().String()})
		}))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			var req logLevelRequest
			if err := utils.ParseJSON(r.Body, &req); err != nil {
				return utils.BadRequest(err)
			}
			level, ok := levels[req.Level]
			if !ok {
				return utils.BadRequest(errors.Errorf("invalid verbosity level %q", req.Level))
			}
			logLevel.Set(level)
			log.Root().Info("log level changed", "level", level)
			return utils.WriteJSON(w, &logLevelResponse{CurrentLevel: logLevel.Level().String()})
		}))

	sub.Path("/apilogs").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, &apiLogsResponse{Enabled: apiLogs.Load()})
		}))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			var req apiLogsRequest
			if err := utils.ParseJSON(r.Body, &req); err != nil {
				return utils.BadRequest(err)
			}
			apiLogs.Store(req.Enabled)
			return utils.WriteJSON(w, &apiLogsResponse{Enabled: apiLogs.Load()})
		}))

	sub.Path("/health").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			status := health.Status(r.Context())
			w.Header().Set("Content-Type", utils.JSONContentType)
			if !status.Healthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			return json.NewEncoder(w).Encode(status)
		}))

	return handlers.CompressHandler(router)
}
