// Package httpapi exposes the CMS over a JSON/HTTP API: SIWE session
// endpoints, the article CRUD surface, navigation pages and image upload.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/config"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/sessions"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/siwe"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/uploads"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
	"github.com/gorilla/mux"
)

type Server struct {
	address   string
	logger    logging.Logger
	config    *config.Config
	secretKey []byte
	sessions  *sessions.Manager
	verifier  siwe.Verifier
	users     *users.Service
	articles  *articles.Service
	uploads   *uploads.Service
}

func NewServer(cfg *config.Config, l logging.Logger, sm *sessions.Manager, v siwe.Verifier,
	us *users.Service, as *articles.Service, up *uploads.Service) (*Server, error) {
	return &Server{
		address:   cfg.EndpointAddr,
		logger:    l.With("module", "httpapi"),
		config:    cfg,
		secretKey: []byte(cfg.SecretKey),
		sessions:  sm,
		verifier:  v,
		users:     us,
		articles:  as,
		uploads:   up,
	}, nil
}

// Router builds the route table wrapped in the CORS, logging and session
// middleware. Split out from Run so tests can drive the handlers through
// httptest without binding a socket. CORS sits outermost so preflight
// requests are answered before route matching.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/nonce", s.handleNonce).Methods("GET")
	r.HandleFunc("/verify", s.handleVerify).Methods("POST")
	r.HandleFunc("/signout", s.handleSignOut).Methods("POST")
	r.HandleFunc("/me", s.handleMe).Methods("GET")

	r.HandleFunc("/articles", s.handleListArticles).Methods("GET")
	r.HandleFunc("/articles", s.handleCreateArticle).Methods("POST")
	r.HandleFunc("/articles/{idOrSlug}", s.handleGetArticle).Methods("GET")
	r.HandleFunc("/articles/{id}", s.handleUpdateArticle).Methods("PUT")
	r.HandleFunc("/articles/{id}", s.handleDeleteArticle).Methods("DELETE")
	r.HandleFunc("/nav-pages", s.handleNavPages).Methods("GET")

	r.HandleFunc("/upload", s.handleUpload).Methods("POST")

	return s.corsMiddleware(s.loggingMiddleware(s.sessionMiddleware(r)))
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
