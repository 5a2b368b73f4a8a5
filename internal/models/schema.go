package models

// Remote field types with validation semantics attached.
const (
	FieldTypeEmail    = "EMAIL"
	FieldTypeCheckbox = "CHECKBOX"
	FieldTypeDropDown = "DROP_DOWN"
)

// CaptureField is one field of a remote capture-form definition. It references
// a FormField by key and carries the per-form requiredness.
type CaptureField struct {
	FormFieldKey string `json:"FormFieldKey"`
	Required     bool   `json:"Required"`
}

// FormField is the account-wide field definition resolved for a CaptureField.
type FormField struct {
	FormFieldID string            `json:"FormFieldId"`
	Type        string            `json:"Type"`
	Length      int               `json:"Length"`
	Options     map[string]string `json:"Options"`
}

// FormFieldMap indexes form fields by their FormFieldKey.
type FormFieldMap map[string]FormField
