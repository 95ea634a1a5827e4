package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/auth"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AvatarLookup resolves an avatar URL for an email address. Registration
// uses it best-effort; implementations live in the avatar package.
type AvatarLookup interface {
	LookupURL(ctx context.Context, email string) (string, error)
}

// UserService provides account operations:
// - Register: create users, pre-populating the avatar from a lookup service
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - ConfirmEmail / SetAvatar: account state updates driven by signed tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	avatars                      AvatarLookup
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	confirmTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, avatars AvatarLookup, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		avatars:                      avatars,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		confirmTokenValidityDuration: cfg.ConfirmTokenValidityDuration,
	}
}

// FindByEmail returns the user with the given email, or common.ErrorNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByEmail(ctx, email)
}

// GetByID returns the user with the given id, or common.ErrorNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByID(ctx, id)
}

// Register creates a new, unconfirmed user. The password is stored as a
// bcrypt hash. An avatar lookup runs before the insert; its failure is
// logged and the account is created without an avatar. Duplicate username
// or email yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Username: username, Email: email, Password: string(hash)}

	if url, err := s.avatars.LookupURL(ctx, email); err != nil {
		s.logger.Warn(ctx, "avatar lookup failed", "email", email, "error", err)
	} else {
		user.Avatar = &url
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the email/password pair and, on success, returns a new
// TokenPair. Unknown email and wrong password both yield ErrorUnauthorized;
// a correct password on an unconfirmed account yields ErrorEmailNotConfirmed.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}
	if !user.Confirmed {
		return nil, common.ErrorEmailNotConfirmed
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. An unknown token means it expired or was
// already rotated away, which yields ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user.ID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SetRefreshToken overwrites the refresh token stored for user; nil clears
// it. The in-memory user is updated to match.
func (s *UserService) SetRefreshToken(ctx context.Context, user *models.User, token *string) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateRefreshToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("error updating refresh token: %w", err)
	}
	user.RefreshToken = token
	return nil
}

// Logout discards the user's refresh token, invalidating the session.
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	return nil
}

// GenerateConfirmToken mints a signed email-confirmation token for email.
func (s *UserService) GenerateConfirmToken(email string) (string, error) {
	return auth.GenerateEmailToken(email, s.jwtSecret, s.confirmTokenValidityDuration)
}

// ConfirmEmail marks the account with the given email confirmed. The email
// always comes from a token we minted ourselves, so a missing account is an
// internal inconsistency, not a client error.
func (s *UserService) ConfirmEmail(ctx context.Context, email string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: confirming unknown email %s", common.ErrorInternal, email)
		}
		return nil, err
	}

	if err := repo.UpdateConfirmed(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("error confirming user: %w", err)
	}
	user.Confirmed = true
	return user, nil
}

// ConfirmEmailToken verifies a confirmation token and confirms the embedded
// account.
func (s *UserService) ConfirmEmailToken(ctx context.Context, tokenString string) (*models.User, error) {
	email, err := auth.GetEmailFromToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return s.ConfirmEmail(ctx, email)
}

// SetAvatar stores url as the avatar of the account with the given email
// and returns the updated user. As with ConfirmEmail, a missing account is
// an internal inconsistency, not a client error.
func (s *UserService) SetAvatar(ctx context.Context, email, url string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: setting avatar for unknown email %s", common.ErrorInternal, email)
		}
		return nil, err
	}
	return repo.UpdateAvatar(ctx, user.ID, url)
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	repo := s.repomanager.Users(tx)
	if err := repo.UpdateRefreshToken(ctx, userID, &refresh); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
