package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ourskilllab/internal/models"
	"ourskilllab/internal/pricing"
	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func withPrincipal(principal *models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("principal", principal)
		c.Set("user_id", principal.UserID)
		c.Next()
	}
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// mocks

type mockAuthService struct {
	services.AuthService
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, request *validators.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, request)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthService) VerifyMobileOTP(ctx context.Context, mobile, code string) (*services.AuthResponse, error) {
	args := m.Called(ctx, mobile, code)
	if resp := args.Get(0); resp != nil {
		return resp.(*services.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDiscountService struct {
	services.DiscountService
	mock.Mock
}

func (m *mockDiscountService) QuoteDiscount(ctx context.Context, code string, courseID primitive.ObjectID) (*pricing.Quote, error) {
	args := m.Called(ctx, code, courseID)
	if quote := args.Get(0); quote != nil {
		return quote.(*pricing.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEnrollmentService struct {
	services.EnrollmentService
	mock.Mock
}

func (m *mockEnrollmentService) GetReceipt(ctx context.Context, principal *models.Principal, enrollmentID primitive.ObjectID) (string, error) {
	args := m.Called(ctx, principal, enrollmentID)
	return args.String(0), args.Error(1)
}

type mockSubscriptionService struct {
	services.SubscriptionService
	mock.Mock
}

func (m *mockSubscriptionService) GetCurrentSubscription(ctx context.Context, principal *models.Principal) (*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, principal)
	if sub := args.Get(0); sub != nil {
		return sub.(*models.SubscriptionWithPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWebhookService struct {
	mock.Mock
}

func (m *mockWebhookService) HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error {
	return m.Called(ctx, providerName, payload, signature).Error(0)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

// tests

func TestRegisterRejectsInvalidBody(t *testing.T) {
	svc := &mockAuthService{}
	r := gin.New()
	r.POST("/register", NewAuthHandler(svc).Register)

	w := serve(r, jsonRequest(http.MethodPost, "/register", map[string]string{
		"name":  "Ada",
		"email": "not-an-email",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(utils.KindInvalid), env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterConflict(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Register", mock.Anything, mock.AnythingOfType("*validators.RegisterRequest")).
		Return(nil, utils.Conflict("User with this email or mobile already exists"))
	r := gin.New()
	r.POST("/register", NewAuthHandler(svc).Register)

	w := serve(r, jsonRequest(http.MethodPost, "/register", map[string]string{
		"name":     "Ada Lovelace",
		"email":    "Ada@Example.com",
		"mobile":   "+14155550100",
		"password": "correct-horse",
	}))

	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestVerifyMobileOTPReturnsToken(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifyMobileOTP", mock.Anything, "+14155550100", "123456").
		Return(&services.AuthResponse{AccessToken: "jwt", TokenType: "Bearer"}, nil)
	r := gin.New()
	r.POST("/verify", NewAuthHandler(svc).VerifyMobileOTP)

	w := serve(r, jsonRequest(http.MethodPost, "/verify", map[string]string{
		"mobile": "+14155550100",
		"otp":    "123456",
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, "jwt", resp.AccessToken)
}

func TestValidateDiscountQuery(t *testing.T) {
	courseID := primitive.NewObjectID()
	svc := &mockDiscountService{}
	svc.On("QuoteDiscount", mock.Anything, "SAVE10", courseID).
		Return(&pricing.Quote{OriginalPrice: 100, FinalPrice: 90, DiscountAmount: 10}, nil)
	r := gin.New()
	r.GET("/discounts/validate", NewDiscountHandler(svc).ValidateDiscount)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/discounts/validate?code=SAVE10&course_id="+courseID.Hex(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/discounts/validate?code=SAVE10&course_id=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "QuoteDiscount", 1)
}

func TestGetReceiptServesHTML(t *testing.T) {
	principal := &models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	enrollmentID := primitive.NewObjectID()
	svc := &mockEnrollmentService{}
	svc.On("GetReceipt", mock.Anything, principal, enrollmentID).Return("<html>receipt</html>", nil)

	r := gin.New()
	r.GET("/receipts/:id", withPrincipal(principal), NewEnrollmentHandler(svc).GetReceipt)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/receipts/"+enrollmentID.Hex(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>receipt</html>", w.Body.String())
}

func TestGetReceiptRequiresPrincipal(t *testing.T) {
	r := gin.New()
	r.GET("/receipts/:id", NewEnrollmentHandler(&mockEnrollmentService{}).GetReceipt)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/receipts/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentSubscriptionNone(t *testing.T) {
	principal := &models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	svc := &mockSubscriptionService{}
	svc.On("GetCurrentSubscription", mock.Anything, principal).Return(nil, nil)

	r := gin.New()
	r.GET("/current", withPrincipal(principal), NewSubscriptionHandler(svc).GetCurrentSubscription)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/current", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, utils.StatusSuccess, env.Status)
	assert.Empty(t, env.Data)
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	svc := &mockWebhookService{}
	svc.On("HandleWebhook", mock.Anything, "stripe", payload, "t=1,v1=abc").Return(nil)
	svc.On("HandleWebhook", mock.Anything, "razorpay", payload, "").
		Return(utils.Invalid("Invalid webhook signature"))

	r := gin.New()
	r.POST("/webhooks/:provider", NewWebhookHandler(svc).HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(payload))
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewReader(payload))
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)

	svc.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	r := gin.New()
	healthy := NewHealthHandler("test", map[string]Pinger{"cache": fakePinger{}}, logger.NewNop())
	r.GET("/health", healthy.Health)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)

	r = gin.New()
	degraded := NewHealthHandler("test", map[string]Pinger{"db": fakePinger{err: context.DeadlineExceeded}}, logger.NewNop())
	r.GET("/health", degraded.Health)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}
