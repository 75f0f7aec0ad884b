package apis

import (
	"bytes"
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEcho() *echo.Echo {
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	e := echo.New()
	e.Validator = NewValidator()
	e.JSONSerializer = JSONSerializer{}
	e.HTTPErrorHandler = NewErrorHandler(logger)
	return e
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// call runs a handler the way echo's router would, rendering returned
// errors through the error handler.
func call(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func asActor(c echo.Context, id string, role model.Role) {
	c.Set(actorKey, model.Actor{ID: id, Role: role})
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.BaseResponse {
	t.Helper()
	var response model.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

// decodeData converts the response data into v.
func decodeData(t *testing.T, response model.BaseResponse, v any) {
	t.Helper()
	raw, err := json.Marshal(response.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req model.RegisterUserRequest) (model.AuthResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, actor model.Actor) (model.User, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, rawToken string, req model.ResetPasswordRequest) (model.AuthResult, error) {
	args := m.Called(ctx, rawToken, req)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, actor model.Actor, req model.UpdatePasswordRequest) (model.AuthResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, actor model.Actor, req model.UpdateProfileRequest) (model.User, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, rawToken string) (model.User, error) {
	args := m.Called(ctx, rawToken)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, actor model.Actor) error {
	return m.Called(ctx, actor).Error(0)
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) List(ctx context.Context, actor *model.Actor, q model.EventListQuery) (model.Page[model.Event], error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(model.Page[model.Event]), args.Error(1)
}

func (m *MockEventService) Get(ctx context.Context, actor *model.Actor, id string) (model.Event, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *MockEventService) MyEvents(ctx context.Context, actor model.Actor, q model.EventListQuery) (model.Page[model.Event], error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(model.Page[model.Event]), args.Error(1)
}

func (m *MockEventService) Create(ctx context.Context, actor model.Actor, req model.EventRequest) (model.Event, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, actor model.Actor, id string, req model.EventUpdateRequest) (model.Event, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, actor model.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, actor model.Actor, req model.RegistrationRequest) (model.Registration, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) Cancel(ctx context.Context, actor model.Actor, id, reason string) (model.Registration, error) {
	args := m.Called(ctx, actor, id, reason)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) UpdateStatus(ctx context.Context, actor model.Actor, id string, req model.RegistrationStatusRequest) (model.Registration, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) CheckIn(ctx context.Context, actor model.Actor, id string) (model.Registration, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) CheckOut(ctx context.Context, actor model.Actor, id string) (model.Registration, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) SubmitFeedback(ctx context.Context, actor model.Actor, id string, req model.FeedbackRequest) (model.Registration, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(model.Registration), args.Error(1)
}

func (m *MockRegistrationService) Get(ctx context.Context, actor model.Actor, id string) (model.RegistrationView, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.RegistrationView), args.Error(1)
}

func (m *MockRegistrationService) ListMine(ctx context.Context, actor model.Actor, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(model.Page[model.RegistrationView]), args.Error(1)
}

func (m *MockRegistrationService) ListAll(ctx context.Context, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Page[model.RegistrationView]), args.Error(1)
}

func (m *MockRegistrationService) ListForEvent(ctx context.Context, actor model.Actor, eventID string, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	args := m.Called(ctx, actor, eventID, q)
	return args.Get(0).(model.Page[model.RegistrationView]), args.Error(1)
}

func (m *MockRegistrationService) Attendance(ctx context.Context, actor model.Actor, eventID string) ([]model.Registration, error) {
	args := m.Called(ctx, actor, eventID)
	return args.Get(0).([]model.Registration), args.Error(1)
}

func (m *MockRegistrationService) Export(ctx context.Context, actor model.Actor, eventID string, w io.Writer) error {
	args := m.Called(ctx, actor, eventID, w)
	if fn, ok := args.Get(0).(func(io.Writer) error); ok {
		return fn(w)
	}
	return args.Error(0)
}

func (m *MockRegistrationService) Import(ctx context.Context, actor model.Actor, eventID string, r io.Reader) ([]model.RegistrationImportResult, error) {
	args := m.Called(ctx, actor, eventID, r)
	return args.Get(0).([]model.RegistrationImportResult), args.Error(1)
}

func (m *MockRegistrationService) Recompute(ctx context.Context, actor model.Actor, eventID string) (model.EventCounters, error) {
	args := m.Called(ctx, actor, eventID)
	return args.Get(0).(model.EventCounters), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, actor model.Actor, q model.NotificationListQuery) (model.Page[model.Notification], error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(model.Page[model.Notification]), args.Error(1)
}

func (m *MockNotificationService) Get(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, actor model.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) TrackOpen(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) TrackClick(ctx context.Context, actor model.Actor, id string, ch model.Channel) (model.Notification, error) {
	args := m.Called(ctx, actor, id, ch)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, actor model.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockNotificationService) Send(ctx context.Context, sender *model.Actor, req model.NotificationRequest) (model.Notification, error) {
	args := m.Called(ctx, sender, req)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) SendBulk(ctx context.Context, sender *model.Actor, req model.BulkNotificationRequest) (model.BulkNotificationResult, error) {
	args := m.Called(ctx, sender, req)
	return args.Get(0).(model.BulkNotificationResult), args.Error(1)
}

func (m *MockNotificationService) Retry(ctx context.Context, id string) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationService) TestEmail(ctx context.Context, to string) error {
	return m.Called(ctx, to).Error(0)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Tree(ctx context.Context, includeInactive bool) ([]*model.Category, error) {
	args := m.Called(ctx, includeInactive)
	return args.Get(0).([]*model.Category), args.Error(1)
}

func (m *MockCategoryService) Get(ctx context.Context, id string) (model.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, actor model.Actor, req model.CategoryRequest) (model.Category, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, id string, req model.CategoryUpdateRequest) (model.Category, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
