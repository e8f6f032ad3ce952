package app

import (
	"context"
	"io"
	"log/slog"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(q database.DBTX) error) error {
	return fn(nil)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.User, error) {
	return userResult(m.Called(ctx, q, id))
}

func (m *MockUserRepository) Update(ctx context.Context, q database.DBTX, user *domain.User) error {
	return m.Called(ctx, q, user).Error(0)
}

func userResult(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Invalidate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRefreshTokenRepository) InvalidateForUser(ctx context.Context, q database.DBTX, userID uuid.UUID) error {
	return m.Called(ctx, q, userID).Error(0)
}

type MockOtpRepository struct {
	mock.Mock
}

func (m *MockOtpRepository) Create(ctx context.Context, otp *domain.Otp) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *MockOtpRepository) GetLatestPending(ctx context.Context, userID uuid.UUID) (*domain.Otp, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Otp), args.Error(1)
}

func (m *MockOtpRepository) MarkVerified(ctx context.Context, otp *domain.Otp) error {
	return m.Called(ctx, otp).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return m.Called(ctx, subject, data).Error(0)
}

type MockPhoneNumberRepository struct {
	mock.Mock
}

func (m *MockPhoneNumberRepository) Create(ctx context.Context, q database.DBTX, n *numberdomain.PhoneNumber) error {
	return m.Called(ctx, q, n).Error(0)
}

func (m *MockPhoneNumberRepository) GetByID(ctx context.Context, id uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberResult(m.Called(ctx, id))
}

func (m *MockPhoneNumberRepository) GetByNumber(ctx context.Context, number string) (*numberdomain.PhoneNumber, error) {
	return numberResult(m.Called(ctx, number))
}

func (m *MockPhoneNumberRepository) List(ctx context.Context, offset, limit int) ([]*numberdomain.PhoneNumber, error) {
	return numbersResult(m.Called(ctx, offset, limit))
}

func (m *MockPhoneNumberRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*numberdomain.PhoneNumber, error) {
	return numbersResult(m.Called(ctx, userID))
}

func (m *MockPhoneNumberRepository) GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberResult(m.Called(ctx, q, id))
}

func (m *MockPhoneNumberRepository) ListByOwnerForUpdate(ctx context.Context, q database.DBTX, userID uuid.UUID) ([]*numberdomain.PhoneNumber, error) {
	return numbersResult(m.Called(ctx, q, userID))
}

func (m *MockPhoneNumberRepository) Save(ctx context.Context, q database.DBTX, n *numberdomain.PhoneNumber) error {
	return m.Called(ctx, q, n).Error(0)
}

func numberResult(args mock.Arguments) (*numberdomain.PhoneNumber, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numberdomain.PhoneNumber), args.Error(1)
}

func numbersResult(args mock.Arguments) ([]*numberdomain.PhoneNumber, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*numberdomain.PhoneNumber), args.Error(1)
}

type MockRequestThrottle struct {
	mock.Mock
}

func (m *MockRequestThrottle) Allow(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
