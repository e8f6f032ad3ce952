package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notificationdomain "github.com/dialhub/golang_services/internal/notification_service/domain"
	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	apihttp "github.com/dialhub/golang_services/internal/public_api_service/transport/http"
	userapp "github.com/dialhub/golang_services/internal/user_service/app"
	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
)

const (
	employeeToken = "employee-token"
	adminToken    = "admin-token"
	disabledToken = "disabled-user-token"
	webhookSecret = "hook-secret"
)

var (
	employeeID = uuid.New()
	adminID    = uuid.New()
)

type stubValidator map[string]*userapp.AccessClaims

func (s stubValidator) Authenticate(_ context.Context, token string) (*userapp.AccessClaims, error) {
	if token == disabledToken {
		return nil, userdomain.ErrAccountDisabled
	}
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, userdomain.ErrTokenInvalid
}

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*userdomain.User, error) {
	args := m.Called(ctx, email, password, firstName, lastName)
	return userOrNil(args)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*userapp.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return tokensOrNil(args)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*userapp.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return tokensOrNil(args)
}

func (m *MockAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*userdomain.User, error) {
	return userOrNil(m.Called(ctx, userID))
}

type MockOTPService struct{ mock.Mock }

func (m *MockOTPService) RequestOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockOTPService) VerifyOTP(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

type MockAccountService struct{ mock.Mock }

func (m *MockAccountService) DisableAccount(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAccountService) ReplaceOwnedNumbers(ctx context.Context, userID uuid.UUID, numberIDs []uuid.UUID) ([]*numberdomain.PhoneNumber, error) {
	args := m.Called(ctx, userID, numberIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*numberdomain.PhoneNumber), args.Error(1)
}

type MockRoleAssigner struct{ mock.Mock }

func (m *MockRoleAssigner) AssignRole(ctx context.Context, userID uuid.UUID, role userdomain.RoleName) (*userdomain.User, error) {
	return userOrNil(m.Called(ctx, userID, role))
}

type MockNumberService struct{ mock.Mock }

func (m *MockNumberService) CreateNumber(ctx context.Context, number, ownerLabel string) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, number, ownerLabel))
}

func (m *MockNumberService) GetSummary(ctx context.Context, id uuid.UUID) (*numberdomain.NumberSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numberdomain.NumberSummary), args.Error(1)
}

func (m *MockNumberService) ListSummaries(ctx context.Context, offset, limit int) ([]numberdomain.NumberSummary, error) {
	args := m.Called(ctx, offset, limit)
	return summariesOrNil(args)
}

func (m *MockNumberService) ListOwnedSummaries(ctx context.Context, userID uuid.UUID) ([]numberdomain.NumberSummary, error) {
	return summariesOrNil(m.Called(ctx, userID))
}

func (m *MockNumberService) EnsureOwner(ctx context.Context, numberID, userID uuid.UUID) error {
	return m.Called(ctx, numberID, userID).Error(0)
}

func (m *MockNumberService) AssignToUser(ctx context.Context, numberID, userID uuid.UUID, actor string) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID, userID, actor))
}

func (m *MockNumberService) Unassign(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID))
}

func (m *MockNumberService) MarkRedirected(ctx context.Context, numberID, supportLineID uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID, supportLineID))
}

func (m *MockNumberService) ReleaseSupport(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID))
}

func (m *MockNumberService) AssociateRoom(ctx context.Context, numberID, roomID uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID, roomID))
}

func (m *MockNumberService) ReleaseRoom(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID))
}

func (m *MockNumberService) Delete(ctx context.Context, numberID uuid.UUID) error {
	return m.Called(ctx, numberID).Error(0)
}

func (m *MockNumberService) UpdateForwarding(ctx context.Context, numberID uuid.UUID, target string, enabled bool) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID, target, enabled))
}

func (m *MockNumberService) SetVoicemail(ctx context.Context, numberID uuid.UUID, enabled bool, storageKey string) (*numberdomain.PhoneNumber, error) {
	return numberOrNil(m.Called(ctx, numberID, enabled, storageKey))
}

type MockVoicemailService struct{ mock.Mock }

func (m *MockVoicemailService) ListForNumber(ctx context.Context, numberID uuid.UUID, offset, limit int) ([]numberdomain.VoicemailView, error) {
	args := m.Called(ctx, numberID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]numberdomain.VoicemailView), args.Error(1)
}

func (m *MockVoicemailService) Save(ctx context.Context, v *numberdomain.Voicemail) error {
	return m.Called(ctx, v).Error(0)
}

type MockUsageRecomputer struct{ mock.Mock }

func (m *MockUsageRecomputer) RecomputeAll(ctx context.Context, reference time.Time) (int, int, error) {
	args := m.Called(ctx, reference)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockNotificationService struct{ mock.Mock }

func (m *MockNotificationService) ListForNotifier(ctx context.Context, notifierID uuid.UUID, unreadOnly bool, offset, limit int) ([]*notificationdomain.Notification, error) {
	args := m.Called(ctx, notifierID, unreadOnly, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notificationdomain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, notifierID uuid.UUID) error {
	return m.Called(ctx, id, notifierID).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, notifierID uuid.UUID) (int64, error) {
	args := m.Called(ctx, notifierID)
	return args.Get(0).(int64), args.Error(1)
}

type MockDirectoryService struct{ mock.Mock }

func (m *MockDirectoryService) Create(ctx context.Context, label, phoneNumber string) (*numberdomain.DirectoryNumber, error) {
	args := m.Called(ctx, label, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numberdomain.DirectoryNumber), args.Error(1)
}

func (m *MockDirectoryService) List(ctx context.Context, offset, limit int) ([]*numberdomain.DirectoryNumber, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*numberdomain.DirectoryNumber), args.Error(1)
}

func (m *MockDirectoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func userOrNil(args mock.Arguments) (*userdomain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userdomain.User), args.Error(1)
}

func tokensOrNil(args mock.Arguments) (*userapp.TokenPair, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userapp.TokenPair), args.Error(1)
}

func numberOrNil(args mock.Arguments) (*numberdomain.PhoneNumber, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numberdomain.PhoneNumber), args.Error(1)
}

func summariesOrNil(args mock.Arguments) ([]numberdomain.NumberSummary, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]numberdomain.NumberSummary), args.Error(1)
}

type testAPI struct {
	router        http.Handler
	auth          *MockAuthService
	otp           *MockOTPService
	accounts      *MockAccountService
	roles         *MockRoleAssigner
	numbers       *MockNumberService
	voicemails    *MockVoicemailService
	usage         *MockUsageRecomputer
	notifications *MockNotificationService
	directory     *MockDirectoryService
}

func setupAPITest() *testAPI {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()
	api := &testAPI{
		auth:          new(MockAuthService),
		otp:           new(MockOTPService),
		accounts:      new(MockAccountService),
		roles:         new(MockRoleAssigner),
		numbers:       new(MockNumberService),
		voicemails:    new(MockVoicemailService),
		usage:         new(MockUsageRecomputer),
		notifications: new(MockNotificationService),
		directory:     new(MockDirectoryService),
	}
	validatorStub := stubValidator{
		employeeToken: {UserID: employeeID, Email: "employee@example.com", Role: userdomain.RoleEmployee},
		adminToken:    {UserID: adminID, Email: "admin@example.com", Role: userdomain.RoleAdmin},
	}
	api.router = apihttp.NewRouter(apihttp.RouterDeps{
		Auth:           apihttp.NewAuthHandler(api.auth, api.otp, logger, validate),
		UserAdmin:      apihttp.NewUserAdminHandler(api.accounts, api.roles, logger, validate),
		Numbers:        apihttp.NewNumberHandler(api.numbers, api.voicemails, api.usage, logger, validate),
		Notifications:  apihttp.NewNotificationHandler(api.notifications, logger),
		Directory:      apihttp.NewDirectoryHandler(api.directory, logger, validate),
		Webhook:        apihttp.NewVoicemailWebhookHandler(api.voicemails, webhookSecret, logger, validate),
		TokenValidator: validatorStub,
		Logger:         logger,
	})
	return api
}

func (api *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst))
}
