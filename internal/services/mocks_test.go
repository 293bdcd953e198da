package services

import (
	"context"
	"errors"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"
	"ourskilllab/pkg/payment"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	args := m.Called(ctx, mobile)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	args := m.Called(ctx, email, mobile)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) AddEnrolledCourse(ctx context.Context, userID, courseID primitive.ObjectID) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func (m *mockUserRepo) SetStripeCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

type mockCourseRepo struct{ mock.Mock }

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockCourseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	args := m.Called(ctx, id)
	course, _ := args.Get(0).(*models.Course)
	return course, args.Error(1)
}

func (m *mockCourseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Course, error) {
	args := m.Called(ctx, ids)
	courses, _ := args.Get(0).([]*models.Course)
	return courses, args.Error(1)
}

func (m *mockCourseRepo) ListAll(ctx context.Context) ([]*models.Course, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]*models.Course)
	return courses, args.Error(1)
}

func (m *mockCourseRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Course, int64, error) {
	args := m.Called(ctx, params)
	courses, _ := args.Get(0).([]*models.Course)
	return courses, args.Get(1).(int64), args.Error(2)
}

func (m *mockCourseRepo) AddEnrolledUser(ctx context.Context, courseID, userID primitive.ObjectID) error {
	return m.Called(ctx, courseID, userID).Error(0)
}

type mockDiscountRepo struct{ mock.Mock }

func (m *mockDiscountRepo) Create(ctx context.Context, discount *models.Discount) error {
	args := m.Called(ctx, discount)
	if discount.ID.IsZero() {
		discount.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockDiscountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	args := m.Called(ctx, id)
	discount, _ := args.Get(0).(*models.Discount)
	return discount, args.Error(1)
}

func (m *mockDiscountRepo) GetByCode(ctx context.Context, code string) (*models.Discount, error) {
	args := m.Called(ctx, code)
	discount, _ := args.Get(0).(*models.Discount)
	return discount, args.Error(1)
}

func (m *mockDiscountRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Discount, int64, error) {
	args := m.Called(ctx, params)
	discounts, _ := args.Get(0).([]*models.Discount)
	return discounts, args.Get(1).(int64), args.Error(2)
}

func (m *mockDiscountRepo) ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	args := m.Called(ctx, id)
	discount, _ := args.Get(0).(*models.Discount)
	return discount, args.Error(1)
}

type mockEnrollmentRepo struct{ mock.Mock }

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	if args.Error(0) == nil && enrollment.ID.IsZero() {
		enrollment.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockEnrollmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Enrollment, error) {
	args := m.Called(ctx, id)
	enrollment, _ := args.Get(0).(*models.Enrollment)
	return enrollment, args.Error(1)
}

func (m *mockEnrollmentRepo) FindCompleted(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	enrollment, _ := args.Get(0).(*models.Enrollment)
	return enrollment, args.Error(1)
}

func (m *mockEnrollmentRepo) MarkReceiptSent(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEnrollmentRepo) ListCompletedByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Enrollment, error) {
	args := m.Called(ctx, userID)
	enrollments, _ := args.Get(0).([]*models.Enrollment)
	return enrollments, args.Error(1)
}

func (m *mockEnrollmentRepo) ListPaymentHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).([]*models.PaymentRecord)
	return records, args.Error(1)
}

func (m *mockEnrollmentRepo) ListReport(ctx context.Context, params *utils.PaginationParams) ([]*models.EnrollmentReport, int64, error) {
	args := m.Called(ctx, params)
	report, _ := args.Get(0).([]*models.EnrollmentReport)
	return report, args.Get(1).(int64), args.Error(2)
}

type mockPlanRepo struct{ mock.Mock }

func (m *mockPlanRepo) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	args := m.Called(ctx, plan)
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	plan, _ := args.Get(0).(*models.SubscriptionPlan)
	return plan, args.Error(1)
}

func (m *mockPlanRepo) ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]*models.SubscriptionPlan)
	return plans, args.Error(1)
}

func (m *mockPlanRepo) ListAll(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]*models.SubscriptionPlan)
	return plans, args.Error(1)
}

func (m *mockPlanRepo) SetStripeIDs(ctx context.Context, id primitive.ObjectID, productID, priceID string) error {
	return m.Called(ctx, id, productID, priceID).Error(0)
}

type mockUserSubscriptionRepo struct{ mock.Mock }

func (m *mockUserSubscriptionRepo) Create(ctx context.Context, sub *models.UserSubscription) error {
	args := m.Called(ctx, sub)
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *mockUserSubscriptionRepo) FindActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserSubscription, error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*models.UserSubscription)
	return sub, args.Error(1)
}

func (m *mockUserSubscriptionRepo) FindActiveByStripeID(ctx context.Context, userID primitive.ObjectID, stripeSubscriptionID string) (*models.UserSubscription, error) {
	args := m.Called(ctx, userID, stripeSubscriptionID)
	sub, _ := args.Get(0).(*models.UserSubscription)
	return sub, args.Error(1)
}

func (m *mockUserSubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.UserSubscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	sub, _ := args.Get(0).(*models.UserSubscription)
	return sub, args.Error(1)
}

func (m *mockUserSubscriptionRepo) GetActiveWithPlan(ctx context.Context, userID primitive.ObjectID) (*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*models.SubscriptionWithPlan)
	return sub, args.Error(1)
}

func (m *mockUserSubscriptionRepo) ListByUserWithPlan(ctx context.Context, userID primitive.ObjectID) ([]*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, userID)
	subs, _ := args.Get(0).([]*models.SubscriptionWithPlan)
	return subs, args.Error(1)
}

func (m *mockUserSubscriptionRepo) SetCancelAtPeriodEnd(ctx context.Context, id primitive.ObjectID, cancel bool) error {
	return m.Called(ctx, id, cancel).Error(0)
}

func (m *mockUserSubscriptionRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockPaymentProvider struct{ mock.Mock }

func (m *mockPaymentProvider) Name() string { return "stripe" }

func (m *mockPaymentProvider) CreatePaymentIntent(ctx context.Context, request *payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, request)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockPaymentProvider) GetPaymentIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockPaymentProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(ctx, payload, signature)
	event, _ := args.Get(0).(*payment.WebhookEvent)
	return event, args.Error(1)
}

type mockSubscriptionProvider struct{ mock.Mock }

func (m *mockSubscriptionProvider) GetCustomer(ctx context.Context, customerID string) (*payment.Customer, error) {
	args := m.Called(ctx, customerID)
	customer, _ := args.Get(0).(*payment.Customer)
	return customer, args.Error(1)
}

func (m *mockSubscriptionProvider) CreateCustomer(ctx context.Context, request *payment.CustomerRequest) (*payment.Customer, error) {
	args := m.Called(ctx, request)
	customer, _ := args.Get(0).(*payment.Customer)
	return customer, args.Error(1)
}

func (m *mockSubscriptionProvider) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	return m.Called(ctx, customerID, paymentMethodID).Error(0)
}

func (m *mockSubscriptionProvider) CreateProduct(ctx context.Context, name, description string) (string, error) {
	args := m.Called(ctx, name, description)
	return args.String(0), args.Error(1)
}

func (m *mockSubscriptionProvider) CreatePrice(ctx context.Context, request *payment.PriceRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *mockSubscriptionProvider) CreateSubscription(ctx context.Context, request *payment.SubscriptionRequest) (*payment.Subscription, error) {
	args := m.Called(ctx, request)
	sub, _ := args.Get(0).(*payment.Subscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*payment.Subscription, error) {
	args := m.Called(ctx, subscriptionID, cancel)
	sub, _ := args.Get(0).(*payment.Subscription)
	return sub, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendMobileOTP(ctx context.Context, mobile, code string, ttl time.Duration) error {
	return m.Called(ctx, mobile, code, ttl).Error(0)
}

func (m *mockNotifier) SendEmailOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.Called(ctx, to, code, ttl).Error(0)
}

func (m *mockNotifier) SendReceipt(ctx context.Context, to string, data *ReceiptData) error {
	return m.Called(ctx, to, data).Error(0)
}

func adminPrincipal() *models.Principal {
	return &models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func userPrincipal() *models.Principal {
	return &models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleUser, Email: "ada@example.com"}
}

func appMessage(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
