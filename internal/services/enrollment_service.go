package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/pricing"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/database"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/payment"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment intent metadata keys. They tie a processor payment back to the
// enrollment it pays for.
const (
	metaUserID         = "user_id"
	metaCourseID       = "course_id"
	metaDiscountID     = "discount_id"
	metaDiscountAmount = "discount_amount"
)

type EnrollmentService interface {
	CreatePaymentIntent(ctx context.Context, principal *models.Principal, request *validators.PaymentIntentRequest) (*PaymentIntentResponse, error)
	ConfirmEnrollment(ctx context.Context, principal *models.Principal, request *validators.ConfirmEnrollmentRequest) (*models.Enrollment, error)
	EnrollFree(ctx context.Context, principal *models.Principal, request *validators.FreeEnrollmentRequest) (*models.Enrollment, error)
	// HandlePaymentSucceeded completes the enrollment a verified intent pays
	// for. Intents without enrollment metadata are ignored.
	HandlePaymentSucceeded(ctx context.Context, intent *payment.Intent, method string) error

	ListEnrolledCourses(ctx context.Context, principal *models.Principal) ([]*models.Course, error)
	GetReceipt(ctx context.Context, principal *models.Principal, enrollmentID primitive.ObjectID) (string, error)
	GetPaymentHistory(ctx context.Context, principal *models.Principal) (*PaymentHistory, error)
	EnrollmentReport(ctx context.Context, principal *models.Principal, params *utils.PaginationParams) ([]*models.EnrollmentReport, int64, error)
}

type PaymentIntentResponse struct {
	ClientSecret    string         `json:"client_secret"`
	PaymentIntentID string         `json:"payment_intent_id"`
	Provider        string         `json:"provider"`
	Amount          float64        `json:"amount"`
	Currency        string         `json:"currency"`
	Quote           *pricing.Quote `json:"quote"`
}

type PaymentHistory struct {
	Payments      []*models.PaymentRecord        `json:"payments"`
	Subscriptions []*models.SubscriptionWithPlan `json:"subscriptions"`
}

type enrollmentService struct {
	userRepo         interfaces.UserRepository
	courseRepo       interfaces.CourseRepository
	discountRepo     interfaces.DiscountRepository
	enrollmentRepo   interfaces.EnrollmentRepository
	subscriptionRepo interfaces.UserSubscriptionRepository
	transactor       database.Transactor
	payments         payment.PaymentProvider
	notifier         NotificationService
	currency         string
	now              func() time.Time
	metrics          *metrics.Metrics
	logger           *logger.Logger
}

func NewEnrollmentService(
	userRepo interfaces.UserRepository,
	courseRepo interfaces.CourseRepository,
	discountRepo interfaces.DiscountRepository,
	enrollmentRepo interfaces.EnrollmentRepository,
	subscriptionRepo interfaces.UserSubscriptionRepository,
	transactor database.Transactor,
	payments payment.PaymentProvider,
	notifier NotificationService,
	currency string,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) EnrollmentService {
	return &enrollmentService{
		userRepo:         userRepo,
		courseRepo:       courseRepo,
		discountRepo:     discountRepo,
		enrollmentRepo:   enrollmentRepo,
		subscriptionRepo: subscriptionRepo,
		transactor:       transactor,
		payments:         payments,
		notifier:         notifier,
		currency:         strings.ToLower(currency),
		now:              time.Now,
		metrics:          metrics,
		logger:           logger,
	}
}

func (s *enrollmentService) CreatePaymentIntent(ctx context.Context, principal *models.Principal, request *validators.PaymentIntentRequest) (*PaymentIntentResponse, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	course, quote, err := s.priceOrder(ctx, principal.UserID, request.CourseID, request.DiscountID)
	if err != nil {
		return nil, err
	}
	if quote.FinalPrice <= 0 {
		return nil, utils.Invalid("No payment is required for this course")
	}

	metadata := map[string]string{
		metaUserID:   principal.UserID.Hex(),
		metaCourseID: course.ID.Hex(),
	}
	if quote.HasDiscount() {
		metadata[metaDiscountID] = quote.DiscountID.Hex()
		metadata[metaDiscountAmount] = strconv.FormatFloat(quote.DiscountAmount, 'f', 2, 64)
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, &payment.IntentRequest{
		AmountMinor:  pricing.ToMinorUnits(quote.FinalPrice),
		Currency:     s.currency,
		Description:  course.Title,
		ReceiptEmail: principal.Email,
		Metadata:     metadata,
	})
	if err != nil {
		s.logger.WithError(err).WithUserID(principal.UserID).WithCourseID(course.ID).Error("Failed to create payment intent")
		return nil, utils.Upstream("Failed to create payment", err)
	}

	s.logger.LogPaymentEvent(intent.ID, "intent_created", quote.FinalPrice, s.currency)
	return &PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Provider:        s.payments.Name(),
		Amount:          quote.FinalPrice,
		Currency:        s.currency,
		Quote:           quote,
	}, nil
}

func (s *enrollmentService) ConfirmEnrollment(ctx context.Context, principal *models.Principal, request *validators.ConfirmEnrollmentRequest) (*models.Enrollment, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	courseID, err := validators.ParseObjectID(request.CourseID, "course_id")
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.GetPaymentIntent(ctx, request.PaymentIntentID)
	if err != nil {
		return nil, utils.Upstream("Failed to confirm enrollment", err)
	}
	if !intent.Succeeded() {
		return nil, utils.Invalid("Payment not completed")
	}
	if intent.Metadata[metaUserID] != principal.UserID.Hex() || intent.Metadata[metaCourseID] != courseID.Hex() {
		s.logger.LogSecurityEvent("payment_metadata_mismatch", "medium", map[string]interface{}{
			"user_id":   principal.UserID.Hex(),
			"course_id": courseID.Hex(),
			"intent_id": intent.ID,
		})
		return nil, utils.Invalid("Payment does not match this enrollment")
	}
	if request.DiscountID != "" && request.DiscountID != intent.Metadata[metaDiscountID] {
		return nil, utils.Invalid("Payment does not match this enrollment")
	}

	return s.completeFromIntent(ctx, principal.UserID, courseID, intent, s.payments.Name(), "checkout")
}

func (s *enrollmentService) EnrollFree(ctx context.Context, principal *models.Principal, request *validators.FreeEnrollmentRequest) (*models.Enrollment, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	course, quote, err := s.priceOrder(ctx, principal.UserID, request.CourseID, request.DiscountID)
	if err != nil {
		return nil, err
	}
	if quote.FinalPrice > 0 {
		return nil, utils.Invalid("Payment is required for this course")
	}

	return s.complete(ctx, &completion{
		userID:         principal.UserID,
		course:         course,
		amount:         0,
		discountID:     quote.DiscountRef(),
		discountAmount: quote.DiscountAmount,
		originalPrice:  quote.OriginalPrice,
		method:         "free",
		transactionID:  "free-" + uuid.NewString(),
		source:         "free",
	})
}

func (s *enrollmentService) HandlePaymentSucceeded(ctx context.Context, intent *payment.Intent, method string) error {
	if intent == nil || !intent.Succeeded() {
		return nil
	}
	userID, errUser := primitive.ObjectIDFromHex(intent.Metadata[metaUserID])
	courseID, errCourse := primitive.ObjectIDFromHex(intent.Metadata[metaCourseID])
	if errUser != nil || errCourse != nil {
		s.logger.WithField("intent_id", intent.ID).Debug("Ignoring payment without enrollment metadata")
		return nil
	}

	_, err := s.completeFromIntent(ctx, userID, courseID, intent, method, "webhook")
	if utils.IsKind(err, utils.KindConflict) || utils.IsKind(err, utils.KindNotFound) {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"intent_id": intent.ID,
			"user_id":   userID.Hex(),
			"course_id": courseID.Hex(),
		}).Warn("Payment succeeded but enrollment was not created")
		return nil
	}
	return err
}

func (s *enrollmentService) completeFromIntent(ctx context.Context, userID, courseID primitive.ObjectID, intent *payment.Intent, method, source string) (*models.Enrollment, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	c := &completion{
		userID:        userID,
		course:        course,
		amount:        pricing.FromMinorUnits(intent.AmountMinor),
		originalPrice: course.Price,
		method:        method,
		transactionID: intent.ID,
		source:        source,
	}
	if id, err := primitive.ObjectIDFromHex(intent.Metadata[metaDiscountID]); err == nil {
		c.discountID = &id
		c.discountAmount, _ = strconv.ParseFloat(intent.Metadata[metaDiscountAmount], 64)
	}

	return s.complete(ctx, c)
}

type completion struct {
	userID         primitive.ObjectID
	course         *models.Course
	amount         float64
	discountID     *primitive.ObjectID
	discountAmount float64
	originalPrice  float64
	method         string
	transactionID  string
	source         string
}

// complete writes the completed enrollment and both reference updates as one
// unit. A retry carrying the same transaction id re-applies the reference
// updates and returns the stored record.
func (s *enrollmentService) complete(ctx context.Context, c *completion) (*models.Enrollment, error) {
	existing, err := s.enrollmentRepo.FindCompleted(ctx, c.userID, c.course.ID)
	switch {
	case err == nil:
		if existing.TransactionID == c.transactionID {
			return s.relink(ctx, c, existing)
		}
		return nil, utils.Conflict("Already enrolled in this course")
	case !errors.Is(err, interfaces.ErrNotFound):
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	now := s.now().UTC()
	enrollment := &models.Enrollment{
		UserID:          c.userID,
		CourseID:        c.course.ID,
		PaymentAmount:   utils.RoundCurrency(c.amount),
		DiscountApplied: c.discountID,
		DiscountAmount:  utils.RoundCurrency(c.discountAmount),
		PaymentStatus:   models.PaymentStatusCompleted,
		PaymentDate:     now,
		PaymentMethod:   c.method,
		TransactionID:   c.transactionID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
			return err
		}
		return s.link(ctx, c.userID, c.course.ID)
	})
	if errors.Is(err, interfaces.ErrDuplicate) {
		// Lost the race against a concurrent confirmation.
		existing, findErr := s.enrollmentRepo.FindCompleted(ctx, c.userID, c.course.ID)
		if findErr == nil && existing.TransactionID == c.transactionID {
			return s.relink(ctx, c, existing)
		}
		return nil, utils.Conflict("Already enrolled in this course")
	}
	if err != nil {
		s.logger.WithError(err).WithUserID(c.userID).WithCourseID(c.course.ID).Error("Failed to save enrollment")
		return nil, utils.Internal("Failed to confirm enrollment", err)
	}

	s.metrics.EnrollmentCompleted(c.source, enrollment.PaymentAmount, s.currency)
	s.logger.LogEnrollmentEvent(c.userID, c.course.ID, "completed", map[string]interface{}{
		"enrollment_id":  enrollment.ID.Hex(),
		"transaction_id": enrollment.TransactionID,
		"amount":         enrollment.PaymentAmount,
		"source":         c.source,
	})

	s.sendReceipt(ctx, enrollment, c.course, c.originalPrice)
	return enrollment, nil
}

// link records the enrollment on both the user and the course. Both updates
// are $addToSet so repeating them is harmless.
func (s *enrollmentService) link(ctx context.Context, userID, courseID primitive.ObjectID) error {
	if err := s.userRepo.AddEnrolledCourse(ctx, userID, courseID); err != nil {
		return err
	}
	return s.courseRepo.AddEnrolledUser(ctx, courseID, userID)
}

// relink repairs references left behind when an earlier attempt stored the
// enrollment but failed before both updates were applied.
func (s *enrollmentService) relink(ctx context.Context, c *completion, existing *models.Enrollment) (*models.Enrollment, error) {
	if err := s.link(ctx, c.userID, c.course.ID); err != nil {
		s.logger.WithError(err).WithUserID(c.userID).WithCourseID(c.course.ID).Error("Failed to link enrollment")
		return nil, utils.Internal("Failed to confirm enrollment", err)
	}
	return existing, nil
}

// sendReceipt never fails the enrollment; delivery problems are only logged.
func (s *enrollmentService) sendReceipt(ctx context.Context, enrollment *models.Enrollment, course *models.Course, originalPrice float64) {
	log := s.logger.WithUserID(enrollment.UserID).WithCourseID(course.ID)

	user, err := s.userRepo.GetByID(ctx, enrollment.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load user for receipt")
		return
	}

	err = s.notifier.SendReceipt(ctx, user.Email, s.receiptData(user, course, enrollment, originalPrice))
	if err != nil {
		log.WithError(err).Warn("Failed to send receipt email")
		return
	}

	if err := s.enrollmentRepo.MarkReceiptSent(ctx, enrollment.ID); err != nil {
		log.WithError(err).Warn("Failed to mark receipt as sent")
		return
	}
	enrollment.ReceiptSent = true
}

func (s *enrollmentService) receiptData(user *models.User, course *models.Course, enrollment *models.Enrollment, originalPrice float64) *ReceiptData {
	if originalPrice <= 0 {
		originalPrice = enrollment.PaymentAmount + enrollment.DiscountAmount
	}
	return &ReceiptData{
		UserName:       user.Name,
		CourseTitle:    course.Title,
		PaymentDate:    enrollment.PaymentDate,
		TransactionID:  enrollment.TransactionID,
		OriginalPrice:  originalPrice,
		DiscountAmount: enrollment.DiscountAmount,
		TotalPaid:      enrollment.PaymentAmount,
		Currency:       s.currency,
	}
}

// priceOrder loads the course, rejects a second enrollment and prices the
// order with the optional discount.
func (s *enrollmentService) priceOrder(ctx context.Context, userID primitive.ObjectID, courseHex, discountHex string) (*models.Course, *pricing.Quote, error) {
	courseID, err := validators.ParseObjectID(courseHex, "course_id")
	if err != nil {
		return nil, nil, err
	}
	discountID, err := validators.OptionalObjectID(discountHex, "discount_id")
	if err != nil {
		return nil, nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	_, err = s.enrollmentRepo.FindCompleted(ctx, userID, course.ID)
	if err == nil {
		return nil, nil, utils.Conflict("Already enrolled in this course")
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if discountID == nil {
		quote, err := pricing.FullPrice(course.Price)
		return course, quote, err
	}

	discount, err := s.discountRepo.GetByID(ctx, *discountID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to get discount: %w", err)
	}
	quote, err := pricing.Evaluate(course.Price, discount, s.now())
	if utils.IsKind(err, utils.KindNotFound) {
		return nil, nil, utils.Invalid("Invalid or expired discount code")
	}
	if err != nil {
		return nil, nil, err
	}
	return course, quote, nil
}

func (s *enrollmentService) getCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Course not found")
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *enrollmentService) ListEnrolledCourses(ctx context.Context, principal *models.Principal) ([]*models.Course, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	enrollments, err := s.enrollmentRepo.ListCompletedByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*models.Course{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := s.courseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

func (s *enrollmentService) GetReceipt(ctx context.Context, principal *models.Principal, enrollmentID primitive.ObjectID) (string, error) {
	if principal == nil {
		return "", utils.NotAuthenticated("Not authenticated")
	}
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return "", utils.NotFound("Receipt not found")
		}
		return "", fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment.UserID != principal.UserID && !principal.IsAdmin() {
		return "", utils.NotFound("Receipt not found")
	}
	if enrollment.PaymentStatus != models.PaymentStatusCompleted {
		return "", utils.NotFound("Receipt not found")
	}

	user, err := s.userRepo.GetByID(ctx, enrollment.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	course, err := s.getCourse(ctx, enrollment.CourseID)
	if err != nil {
		return "", err
	}

	return RenderReceipt(s.receiptData(user, course, enrollment, 0))
}

func (s *enrollmentService) GetPaymentHistory(ctx context.Context, principal *models.Principal) (*PaymentHistory, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	payments, err := s.enrollmentRepo.ListPaymentHistory(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	subscriptions, err := s.subscriptionRepo.ListByUserWithPlan(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if payments == nil {
		payments = []*models.PaymentRecord{}
	}
	if subscriptions == nil {
		subscriptions = []*models.SubscriptionWithPlan{}
	}
	return &PaymentHistory{Payments: payments, Subscriptions: subscriptions}, nil
}

func (s *enrollmentService) EnrollmentReport(ctx context.Context, principal *models.Principal, params *utils.PaginationParams) ([]*models.EnrollmentReport, int64, error) {
	if !principal.IsAdmin() {
		return nil, 0, utils.NotAuthorized("Not authorized")
	}
	report, total, err := s.enrollmentRepo.ListReport(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return report, total, nil
}
