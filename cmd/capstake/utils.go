// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/computemarket/capstake/log"
	"github.com/computemarket/capstake/metrics"
)

// logLevel is the root handler's level, changed at runtime through the admin server.
var logLevel = new(slog.LevelVar)

func initLogger(ctx *cli.Context) error {
	lvl := ctx.GlobalInt(verbosityFlag.Name)
	if lvl < log.LegacyLevelCrit || lvl > log.LegacyLevelTrace {
		return errors.Errorf("verbosity %d out of range", lvl)
	}
	logLevel.Set(log.FromLegacyLevel(lvl))

	output := os.Stderr
	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(output, logLevel)
	} else {
		useColor := (isatty.IsTerminal(output.Fd()) || isatty.IsCygwinTerminal(output.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(output, logLevel, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func metricsHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return handlers.CompressHandler(router)
}

// serveHTTP serves handler on addr until ctx is done, then shuts the server down.
func serveHTTP(ctx context.Context, name, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	logger.Info(name+" server started", "url", "http://"+listener.Addr().String())

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(listener)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "serve %s", name)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info(name + " server stopping")
		return srv.Shutdown(shutdown)
	}
}
