// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type MetricsServer struct {
	server         *http.Server
	manager        *Manager
	basicAuthUsers map[string]string
}

// NewMetricsServer serves the registry of manager on /metrics. basicAuthUsers
// is a comma separated list of user:password pairs; malformed pairs are
// skipped.
func NewMetricsServer(manager *Manager, host string, port int, basicAuthUsers string) *MetricsServer {
	users := parseBasicAuthUsers(basicAuthUsers)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	handler := promhttp.HandlerFor(manager.GetRegistry(), promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})

	r.Group(func(r chi.Router) {
		if len(users) > 0 {
			r.Use(BasicAuth("feedarr metrics", users))
		}
		r.Method(http.MethodGet, "/metrics", handler)
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		manager:        manager,
		basicAuthUsers: users,
	}
}

func parseBasicAuthUsers(s string) map[string]string {
	users := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, pass, ok := strings.Cut(entry, ":")
		if !ok || user == "" {
			log.Warn().Msg("metrics: skipping malformed basic auth entry")
			continue
		}
		users[user] = pass
	}
	return users
}

func (s *MetricsServer) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting metrics server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *MetricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// BasicAuth rejects requests whose credentials are not in users.
func BasicAuth(realm string, users map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				if expected, found := users[user]; found && subtle.ConstantTimeCompare([]byte(pass), []byte(expected)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q`, realm))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
}
