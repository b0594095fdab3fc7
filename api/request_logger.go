// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLoggerHandler logs every request with its status and latency.
// The api is read-only, so bodies are never logged.
func requestLoggerHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{w, http.StatusOK}
		handler.ServeHTTP(rec, r)

		logger.Info("API Request",
			"URI", r.URL.String(),
			"Method", r.Method,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}
