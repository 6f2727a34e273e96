package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"weatherwatch/internal/types"
)

// Validator wraps go-playground/validator and translates its field errors
// into the structured AppError codes the API returns to clients.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator. The builtin "timezone" and "datetime"
// tags cover the schedule formats, so no custom tags are registered.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateStruct validates s against its `validate` tags. It returns nil on
// success, or a *types.AppError (400) whose code reflects the first failing
// field and whose details list every failing field with its constraint.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: the caller passed a non-struct.
		v.logger.Error("validator invoked with non-struct input", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "invalid validation target", err)
	}

	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = constraintMessage(fe)
	}

	first := fieldErrs[0]
	return types.NewAppError(
		codeForTag(first.Tag()),
		fmt.Sprintf("invalid value for field %q", fieldPath(first)),
		nil,
	).WithDetails(map[string]any{"fields": fields})
}

// codeForTag maps a validation tag to the API error code for the failure.
func codeForTag(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	case "datetime":
		return types.ErrCodeValidationInvalidTime
	case "timezone":
		return types.ErrCodeValidationInvalidTimezone
	case "url", "https":
		return types.ErrCodeValidationInvalidEndpoint
	default:
		return types.ErrCodeValidationInvalidInput
	}
}

// fieldPath renders the failing field as a dotted path without the leading
// root struct name, e.g. "rules[0].metric" rather than "ScheduleRequest.Rules[0].Metric".
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

// constraintMessage renders a short human-readable description of the failed
// constraint for the details map.
func constraintMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed %q constraint (param %q)", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed %q constraint", fe.Tag())
}
