package users

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

// Repository is the user-account storage contract.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error
	UpdateConfirmed(ctx context.Context, userID int64) error
	UpdateAvatar(ctx context.Context, userID int64, url string) (*models.User, error)
}
