package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

// MaxBatchEntries bounds the size of a single attendance batch
const MaxBatchEntries = 500

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateGradeCreate validates grade creation rules
func (bv *BusinessValidator) ValidateGradeCreate(req *AddGradeRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Remarks != nil && strings.TrimSpace(*req.Remarks) == "" {
		errors = append(errors, ValidationError{
			Field:   "remarks",
			Message: "override must not be blank",
			Rule:    "remarks_override",
		})
	}

	return errors
}

// ValidateAttendanceBatch validates the batch envelope. Entries are
// validated one by one by the ledger so a bad entry never sinks the batch.
func (bv *BusinessValidator) ValidateAttendanceBatch(req *MarkBatchRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if len(req.Entries) > MaxBatchEntries {
		errors = append(errors, ValidationError{
			Field:   "entries",
			Message: "too many entries in a single batch",
			Value:   len(req.Entries),
			Rule:    "max_batch",
		})
	}

	return errors
}

func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})

	bv.validate.RegisterValidation("grade_term", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		return models.Term(field.String()).Valid()
	})

	// Scores are inclusive on both ends
	bv.validate.RegisterValidation("score_range", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		score := field.Float()
		return score >= 0 && score <= 100
	})

	bv.validate.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
}

// ParseDate parses a YYYY-MM-DD calendar day into UTC midnight
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, strings.TrimSpace(value), time.UTC)
}
