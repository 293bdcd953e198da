package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"
)

var validate *validator.Validate

var (
	phoneRegex        = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
	discountCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("course_type", validateCourseType)
	validate.RegisterValidation("plan_interval", validatePlanInterval)
	validate.RegisterValidation("discount_code", validateDiscountCode)
}

var ErrInvalidObjectID = errors.New("invalid object ID format")

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details maps each failing field to its message.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		if _, exists := details[err.Field]; !exists {
			details[err.Field] = err.Message
		}
	}
	return details
}

// AsAppError converts the errors into an INVALID application error, or nil
// when there are none.
func (v ValidationErrors) AsAppError() error {
	if len(v) == 0 {
		return nil
	}
	return utils.InvalidWithDetails(utils.ErrValidationFailed, v.Details())
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

// ParseObjectID parses a path or body id, returning an INVALID error for
// malformed input.
func ParseObjectID(value, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
	if err != nil {
		return primitive.NilObjectID, utils.InvalidWithDetails(utils.ErrInvalidID, map[string]string{field: "Invalid ID format"})
	}
	return id, nil
}

// OptionalObjectID parses value when present.
func OptionalObjectID(value, field string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := ParseObjectID(value, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", err.Field(), err.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", err.Field())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "course_type":
		return "Type must be live or recorded"
	case "plan_interval":
		return "Interval must be month or year"
	case "discount_code":
		return "Code must be 3 to 32 letters, digits, dashes or underscores"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

// E.164 after normalization.
func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(utils.NormalizePhone(phone))
}

func validateCourseType(fl validator.FieldLevel) bool {
	switch models.CourseType(fl.Field().String()) {
	case models.CourseTypeLive, models.CourseTypeRecorded:
		return true
	}
	return false
}

func validatePlanInterval(fl validator.FieldLevel) bool {
	switch models.PlanInterval(fl.Field().String()) {
	case models.PlanIntervalMonth, models.PlanIntervalYear:
		return true
	}
	return false
}

func validateDiscountCode(fl validator.FieldLevel) bool {
	return discountCodeRegex.MatchString(fl.Field().String())
}
