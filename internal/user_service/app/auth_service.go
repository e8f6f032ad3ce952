package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/dialhub/golang_services/internal/user_service/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer        = "dialhub-user-service"
	SubjectUserCreated = "user.created"
)

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type AuthConfig struct {
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AccessClaims is what an access token asserts about its bearer.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Role   domain.RoleName
}

type AuthService struct {
	userRepo         repository.UserRepository
	roleRepo         repository.RoleRepository
	refreshTokenRepo repository.RefreshTokenRepository
	publisher        messagebroker.Publisher
	config           AuthConfig
	logger           *slog.Logger
	now              func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	publisher messagebroker.Publisher,
	config AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		roleRepo:         roleRepo,
		refreshTokenRepo: refreshTokenRepo,
		publisher:        publisher,
		config:           config,
		logger:           logger.With("component", "auth_service"),
		now:              time.Now,
	}
}

// Register creates an enabled EMPLOYEE account.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidArgument)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		s.logger.ErrorContext(ctx, "Error checking email existence", "error", err)
		return nil, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return nil, errors.New("failed to process registration")
	}

	role, err := s.roleRepo.GetByName(ctx, domain.RoleEmployee)
	if err != nil {
		s.logger.ErrorContext(ctx, "Default role missing", "role", domain.RoleEmployee, "error", err)
		return nil, fmt.Errorf("loading default role: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
		RoleID:         role.ID,
		Role:           role.Name,
		IsEnabled:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	s.publishUserCreated(ctx, user)
	return user, nil
}

func (s *AuthService) publishUserCreated(ctx context.Context, user *domain.User) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal user created event", "error", err, "user_id", user.ID)
		return
	}
	if err := s.publisher.Publish(ctx, SubjectUserCreated, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish user created event", "error", err, "user_id", user.ID)
	}
}

// Login checks the credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.HashedPassword) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsEnabled {
		s.logger.WarnContext(ctx, "Login attempt for disabled user", "user_id", user.ID)
		return nil, domain.ErrAccountDisabled
	}
	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. Each refresh token works
// once; presenting a token that belongs to another user revokes that user's sessions.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := parseToken(refreshToken, s.config.JWTRefreshSecret)
	if err != nil {
		s.logger.WarnContext(ctx, "Invalid refresh token", "error", err)
		return nil, domain.ErrTokenInvalid
	}
	userID, err1 := uuid.Parse(claimString(claims, "sub"))
	tokenID, err2 := uuid.Parse(claimString(claims, "rti"))
	if err1 != nil || err2 != nil {
		return nil, domain.ErrTokenInvalid
	}

	stored, err := s.refreshTokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID {
		s.logger.WarnContext(ctx, "Refresh token user mismatch", "token_user_id", stored.UserID, "claimed_user_id", userID)
		if err := s.refreshTokenRepo.InvalidateForUser(ctx, nil, stored.UserID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to revoke sessions", "error", err, "user_id", stored.UserID)
		}
		return nil, domain.ErrTokenInvalid
	}
	if !stored.Usable(s.now()) {
		return nil, domain.ErrTokenInvalid
	}
	if err := s.refreshTokenRepo.Invalidate(ctx, stored.ID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsEnabled {
		return nil, domain.ErrAccountDisabled
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshTokenRepo.InvalidateForUser(ctx, nil, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User logged out", "user_id", userID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// AssignRole changes the role of a user. Authenticate picks the new role up on the next request.
func (s *AuthService) AssignRole(ctx context.Context, userID uuid.UUID, roleName domain.RoleName) (*domain.User, error) {
	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.RoleID = role.ID
	user.Role = role.Name
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, nil, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Role assigned", "user_id", userID, "role", role.Name)
	return user, nil
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims, err := parseToken(tokenString, s.config.JWTAccessSecret)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	userID, err := uuid.Parse(claimString(claims, "sub"))
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &AccessClaims{
		UserID: userID,
		Email:  claimString(claims, "eml"),
		Role:   domain.RoleName(claimString(claims, "rol")),
	}, nil
}

// Authenticate validates the access token and checks the account is still
// enabled, so disabling a user locks them out before their token expires.
// The role comes from the stored user, not the token.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*AccessClaims, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsEnabled {
		s.logger.WarnContext(ctx, "Access token presented by disabled user", "user_id", user.ID)
		return nil, domain.ErrAccountDisabled
	}
	claims.Email = user.Email
	claims.Role = user.Role
	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	now := s.now()
	accessClaims := jwt.MapClaims{
		"sub": user.ID.String(),
		"eml": user.Email,
		"rol": string(user.Role),
		"jti": uuid.NewString(),
		"exp": now.Add(s.config.AccessTTL).Unix(),
		"iat": now.Unix(),
		"iss": tokenIssuer,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.config.JWTAccessSecret))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign access token", "error", err, "user_id", user.ID)
		return nil, errors.New("token generation error")
	}

	stored := &domain.RefreshToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		ExpirationAt: now.Add(s.config.RefreshTTL).UTC(),
		IsValid:      true,
		CreatedAt:    now.UTC(),
	}
	refreshClaims := jwt.MapClaims{
		"sub": user.ID.String(),
		"rti": stored.ID.String(),
		"jti": uuid.NewString(),
		"exp": stored.ExpirationAt.Unix(),
		"iat": now.Unix(),
		"iss": tokenIssuer,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.config.JWTRefreshSecret))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign refresh token", "error", err, "user_id", user.ID)
		return nil, errors.New("token generation error")
	}
	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "bearer"}, nil
}

func parseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
