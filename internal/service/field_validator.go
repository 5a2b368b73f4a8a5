package service

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/internal/models"
	appErrors "github.com/noah-isme/cd-sync-api/pkg/errors"
)

// Per-field validation messages returned to the submitter.
const (
	msgFieldRequired = "Field is required"
	msgWrongFormat   = "Wrong format"
	msgUnknownValue  = "Unknown value"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps a remote field id to its validation messages. An empty map
// means the submission is valid.
type FieldErrors map[string][]string

// FieldValidator checks submitted data against the remote schema and
// normalizes accepted values.
type FieldValidator struct {
	actionPrefix string
	logger       *zap.Logger
}

// NewFieldValidator constructs a validator for forms hosted under the given
// remote base URL.
func NewFieldValidator(baseURL string, logger *zap.Logger) *FieldValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldValidator{
		actionPrefix: strings.TrimRight(baseURL, "/") + "/forms/h/",
		logger:       logger,
	}
}

// ParseCaptureFormAction extracts the capture form key from a submitted form
// action URL, rejecting anything that does not target the expected host.
func (v *FieldValidator) ParseCaptureFormAction(actionURL string) (string, error) {
	key := strings.TrimPrefix(actionURL, v.actionPrefix)
	if key == "" || key == actionURL {
		return "", appErrors.ErrWrongAction
	}
	return key, nil
}

// Validate checks every capture field of the remote schema against the
// submitted data. It returns per-field errors and, when the submission is
// valid, a normalized copy of the payload with over-length values truncated
// and accepted email values lower-cased and trimmed. Payload keys outside the
// schema pass through untouched.
//
// A capture field referencing an unknown form field is a configuration
// problem with the remote schema and aborts the whole submission.
func (v *FieldValidator) Validate(captureFields []models.CaptureField, formFields models.FormFieldMap, data models.FormData) (FieldErrors, models.FormData, error) {
	errs := FieldErrors{}

	normalized := make(models.FormData, len(data))
	for key, value := range data {
		normalized[key] = value
	}

	for _, captureField := range captureFields {
		formField, ok := formFields[captureField.FormFieldKey]
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrSchemaConfig, "form field "+captureField.FormFieldKey+" not found")
		}

		value := data[formField.FormFieldID]

		if captureField.Required && value == "" {
			errs[formField.FormFieldID] = append(errs[formField.FormFieldID], msgFieldRequired)
		}

		if formField.Type == models.FieldTypeEmail && value != "" && !emailPattern.MatchString(strings.TrimSpace(value)) {
			errs[formField.FormFieldID] = append(errs[formField.FormFieldID], msgWrongFormat)
		}

		if !captureField.Required && value != "" && isOptionField(formField.Type) {
			if _, known := formField.Options[value]; !known {
				errs[formField.FormFieldID] = append(errs[formField.FormFieldID], msgUnknownValue)
			}
		}

		if formField.Length > 0 && len(value) > formField.Length {
			v.logger.Sugar().Warnw("field value truncated", "field", formField.FormFieldID, "max_length", formField.Length)
			value = value[:formField.Length]
			normalized[formField.FormFieldID] = value
		}

		if formField.Type == models.FieldTypeEmail && value != "" {
			normalized[formField.FormFieldID] = strings.ToLower(strings.TrimSpace(value))
		}
	}

	if len(errs) > 0 {
		return errs, nil, nil
	}
	return errs, normalized, nil
}

func isOptionField(fieldType string) bool {
	return fieldType == models.FieldTypeCheckbox || fieldType == models.FieldTypeDropDown
}
