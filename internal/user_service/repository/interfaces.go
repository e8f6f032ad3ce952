package repository

import (
	"context"

	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/google/uuid"
)

// UserRepository persists accounts. Methods taking a q run on that querier so
// callers can group them in one transaction; a nil q uses the pool.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, q database.DBTX, user *domain.User) error
}

type RoleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error)
	GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)
	// Invalidate flips a valid token to invalid. It returns domain.ErrTokenInvalid
	// if the token was already invalid, so each token can be used once.
	Invalidate(ctx context.Context, id uuid.UUID) error
	InvalidateForUser(ctx context.Context, q database.DBTX, userID uuid.UUID) error
}

type OtpRepository interface {
	Create(ctx context.Context, otp *domain.Otp) error
	// GetLatestPending returns the newest unverified code of the user.
	GetLatestPending(ctx context.Context, userID uuid.UUID) (*domain.Otp, error)
	MarkVerified(ctx context.Context, otp *domain.Otp) error
}
