// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/output"
)

// errFromResponse rebuilds a *HowthError from a failed daemon Response so
// CLI error reporting (human text or --json) matches what a direct,
// non-daemon failure would have produced.
func errFromResponse(resp daemon.Response) error {
	if resp.Error == nil {
		return howtherrors.Failure(howtherrors.CodeInternal, "daemon request failed with no error detail", "", "", nil)
	}
	return howtherrors.Failure(resp.Error.Code, resp.Error.Message, "", "", nil).WithPath(resp.Error.Path)
}

// outputJSON writes data to stdout as the standard pretty-printed JSON
// shape every --json surface uses.
func outputJSON(data any) error {
	return output.JSON(data)
}

// serveMetrics exposes Prometheus metrics at addr until the process exits.
// Errors other than a clean shutdown are logged, not fatal: a dead metrics
// endpoint shouldn't take the daemon down with it.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics.http.error", "err", err)
	}
}
