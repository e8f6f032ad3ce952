package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func alwaysPhone(string) bool { return true }

// fakeTransactor runs fn without a database; repositories are mocked.
type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(q database.DBTX) error) error {
	return fn(nil)
}

type MockPhoneNumberRepository struct {
	mock.Mock
}

func (m *MockPhoneNumberRepository) Create(ctx context.Context, q database.DBTX, n *domain.PhoneNumber) error {
	return m.Called(ctx, q, n).Error(0)
}

func (m *MockPhoneNumberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) GetByNumber(ctx context.Context, number string) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) List(ctx context.Context, offset, limit int) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) ListByOwnerForUpdate(ctx context.Context, q database.DBTX, userID uuid.UUID) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) Save(ctx context.Context, q database.DBTX, n *domain.PhoneNumber) error {
	return m.Called(ctx, q, n).Error(0)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Create(ctx context.Context, q database.DBTX, u *domain.UsageRecord) error {
	return m.Called(ctx, q, u).Error(0)
}

func (m *MockUsageRepository) GetByPhoneNumberID(ctx context.Context, phoneNumberID uuid.UUID) (*domain.UsageRecord, error) {
	args := m.Called(ctx, phoneNumberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageRecord), args.Error(1)
}

func (m *MockUsageRepository) GetByNumberForUpdate(ctx context.Context, q database.DBTX, number string) (*domain.UsageRecord, error) {
	args := m.Called(ctx, q, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageRecord), args.Error(1)
}

func (m *MockUsageRepository) ListAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*domain.UsageRecord, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UsageRecord), args.Error(1)
}

func (m *MockUsageRepository) Save(ctx context.Context, q database.DBTX, u *domain.UsageRecord) error {
	return m.Called(ctx, q, u).Error(0)
}

func (m *MockUsageRepository) SaveIdleFlags(ctx context.Context, u *domain.UsageRecord) (bool, error) {
	args := m.Called(ctx, u)
	return args.Bool(0), args.Error(1)
}

type MockActorDirectory struct {
	mock.Mock
}

func (m *MockActorDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	args := m.MethodCalled("GetUser", ctx, id)
	return actorResult(args)
}

func (m *MockActorDirectory) GetRoom(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	args := m.MethodCalled("GetRoom", ctx, id)
	return actorResult(args)
}

func (m *MockActorDirectory) GetSupportLine(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	args := m.MethodCalled("GetSupportLine", ctx, id)
	return actorResult(args)
}

func (m *MockActorDirectory) LockUser(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.Actor, error) {
	args := m.MethodCalled("LockUser", ctx, q, id)
	return actorResult(args)
}

func actorResult(args mock.Arguments) (*domain.Actor, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	actor := *args.Get(0).(*domain.Actor)
	return &actor, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNumberAssigned(ctx context.Context, actor string, userID uuid.UUID, number *domain.PhoneNumber) error {
	return m.Called(ctx, actor, userID, number).Error(0)
}

type MockVoicemailRepository struct {
	mock.Mock
}

func (m *MockVoicemailRepository) Upsert(ctx context.Context, v *domain.Voicemail) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockVoicemailRepository) GetByID(ctx context.Context, id string) (*domain.Voicemail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voicemail), args.Error(1)
}

func (m *MockVoicemailRepository) ListByToNumber(ctx context.Context, toNumber string, offset, limit int) ([]*domain.Voicemail, error) {
	args := m.Called(ctx, toNumber, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Voicemail), args.Error(1)
}

func (m *MockVoicemailRepository) MarkPostedOnSlack(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return m.Called(ctx, subject, data).Error(0)
}

type MockSubscriber struct {
	mock.Mock
}

func (m *MockSubscriber) QueueSubscribe(ctx context.Context, subject, queueGroup string, handler messagebroker.MessageHandler) error {
	return m.Called(ctx, subject, queueGroup, handler).Error(0)
}

type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) RecordEvent(ctx context.Context, number string, direction domain.Direction, kind domain.EventKind, occurredAt time.Time) error {
	return m.Called(ctx, number, direction, kind, occurredAt).Error(0)
}
