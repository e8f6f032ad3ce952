package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/dialhub/golang_services/internal/user_service/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

const (
	SubjectOTPRequested = "email.otp.requested"
	otpDigits           = 6
)

// OTPRequest is consumed by the external mailer.
type OTPRequest struct {
	Event   string `json:"event"`
	EmailTo string `json:"email_to"`
	Name    string `json:"name"`
	OTP     string `json:"otp"`
}

// RequestThrottle limits how often one email may ask for a code.
type RequestThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

type OTPService struct {
	userRepo  repository.UserRepository
	otpRepo   repository.OtpRepository
	publisher messagebroker.Publisher
	throttle  RequestThrottle
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
	generate  func() (string, error)
}

func NewOTPService(userRepo repository.UserRepository, otpRepo repository.OtpRepository, publisher messagebroker.Publisher, ttl time.Duration, logger *slog.Logger) *OTPService {
	return &OTPService{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger.With("component", "otp_service"),
		now:       time.Now,
		generate:  generateCode,
	}
}

// WithThrottle enables per-user request limiting. Without it every request issues a code.
func (s *OTPService) WithThrottle(throttle RequestThrottle) *OTPService {
	s.throttle = throttle
	return s
}

// RequestOTP stores a new code for the user and hands it to the mailer.
// Unknown emails succeed silently so the endpoint does not reveal accounts.
// The throttle runs before the lookup so unknown emails are limited the same way.
func (s *OTPService) RequestOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			return err
		}
		if !allowed {
			return domain.ErrOTPThrottled
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "OTP requested for unknown email")
			return nil
		}
		return err
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	now := s.now().UTC()
	otp := &domain.Otp{
		ID:         uuid.New(),
		UserID:     user.ID,
		ValueHash:  HashOTP(code),
		ValidUntil: now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return err
	}

	payload, err := json.Marshal(OTPRequest{Event: "otp", EmailTo: user.Email, Name: user.FullName(), OTP: code})
	if err != nil {
		return fmt.Errorf("marshal otp request: %w", err)
	}
	if err := s.publisher.Publish(ctx, SubjectOTPRequested, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish otp request", "user_id", user.ID, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "OTP issued", "user_id", user.ID, "valid_until", otp.ValidUntil)
	return nil
}

// VerifyOTP checks the code against the user's newest pending OTP.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrOTPInvalid
		}
		return err
	}
	otp, err := s.otpRepo.GetLatestPending(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := otp.Verify(HashOTP(code), s.now()); err != nil {
		s.logger.WarnContext(ctx, "OTP verification failed", "user_id", user.ID)
		return err
	}
	return s.otpRepo.MarkVerified(ctx, otp)
}

// HashOTP returns the hex SHA3-256 of the code.
func HashOTP(code string) string {
	sum := sha3.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
