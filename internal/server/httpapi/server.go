// Package httpapi exposes the contactbook operations over HTTP using chi.
// Handlers translate between JSON payloads and the services layer and map
// sentinel errors to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
)

type userSvc interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	GenerateConfirmToken(email string) (string, error)
	ConfirmEmailToken(ctx context.Context, tokenString string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetAvatar(ctx context.Context, email, url string) (*models.User, error)
}

type contactSvc interface {
	List(ctx context.Context, userID int64, skip, limit int) ([]*models.Contact, error)
	Get(ctx context.Context, userID, contactID int64) (*models.Contact, error)
	Create(ctx context.Context, userID int64, f contacts.Fields) (*models.Contact, error)
	Update(ctx context.Context, userID, contactID int64, f contacts.Fields) (*models.Contact, error)
	Delete(ctx context.Context, userID, contactID int64) (*models.Contact, error)
	Search(ctx context.Context, userID int64, field, value string) ([]*models.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64, ref time.Time) ([]*models.Contact, error)
}

type avatarStore interface {
	PresignedPutURL(ctx context.Context) (string, string, error)
	ObjectURL(key string) string
}

type HTTPServer struct {
	address   string
	users     userSvc
	contacts  contactSvc
	avatars   avatarStore
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, cs *services.ContactService, av avatarStore, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		contacts:  cs,
		avatars:   av,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the chi router with the full route table. Everything under
// /contacts and /avatar requires a bearer access token; /auth/logout does
// too, since it clears the caller's own session.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/confirm/{token}", s.handleConfirmEmail)
		r.Group(func(r chi.Router) {
			r.Use(s.accessTokenMiddleware)
			r.Post("/logout", s.handleLogout)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", s.handleListContacts)
			r.Post("/", s.handleCreateContact)
			r.Get("/birthdays/", s.handleUpcomingBirthdays)
			r.Get("/search/{field}/{value}", s.handleSearchContacts)
			r.Get("/{contactID}", s.handleGetContact)
			r.Put("/{contactID}", s.handleUpdateContact)
			r.Delete("/{contactID}", s.handleDeleteContact)
		})

		r.Route("/avatar", func(r chi.Router) {
			r.Post("/upload-url", s.handleAvatarUploadURL)
			r.Post("/complete", s.handleAvatarComplete)
		})
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "graceful shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
