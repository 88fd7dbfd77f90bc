// Package api implements the REST adapter of spec §6.1: a typed
// command/query surface in front of the single-writer committer. It
// never touches the log, keystore, or gossip layer directly — every
// write goes through Committer.Submit, every read through
// Committer.State().
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
)

// CommitSubmitter is the narrow slice of *node.Committer the REST
// adapter needs, kept as an interface so handlers are testable without
// a real committer goroutine.
type CommitSubmitter interface {
	Submit(ctx context.Context, env *envelope.Envelope) (validation.Result, error)
}

// StateReader is the narrow read-only slice of *node.Committer queries
// need.
type StateReader interface {
	State() *reducers.State
}

// Server is the chi-routed HTTP adapter.
type Server struct {
	router   chi.Router
	commands *commandHandlers
	queries  *queryHandlers
}

// NewServer builds the REST adapter over committer and a read-only
// state accessor. requestTimeout bounds how long a command handler
// waits on Committer.Submit before giving up (spec §5's suspension
// points are REST-side, not committer-side — the committer itself has
// no timeout on processing a queued command).
func NewServer(committer CommitSubmitter, state StateReader, status StatusProvider, requestTimeout time.Duration) *Server {
	s := &Server{
		commands: &commandHandlers{committer: committer, timeout: requestTimeout},
		queries:  &queryHandlers{state: state, status: status},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		// Generic event submission: the body is a fully built, signed
		// envelope (spec §6.1's commands are all, underneath, "submit
		// this envelope"). This is the only write route; the routes
		// below are read-only queries.
		r.Post("/events", s.commands.submitEnvelope)

		r.Get("/wallet/{address}/balance", s.queries.walletBalance)
		r.Get("/wallet/{address}/history", s.queries.walletHistory)

		r.Get("/identity/{did}", s.queries.identityResolve)

		r.Get("/market/listings", s.queries.marketList)
		r.Get("/market/listings/{id}", s.queries.marketGet)

		r.Get("/contracts", s.queries.contractList)
		r.Get("/contracts/{id}", s.queries.contractGet)

		r.Get("/reputation/{subject}", s.queries.reputationGet)

		r.Get("/node/status", s.queries.nodeStatus)
	})
	return r
}

// ServeHTTP lets Server itself act as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// requestLogger adapts the teacher's gorilla-middleware request logger
// to chi's middleware signature, using the same structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
