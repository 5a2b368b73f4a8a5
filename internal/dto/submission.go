package dto

// IntakeRequest is the form submission accepted from the frontend.
type IntakeRequest struct {
	ActionURL    string            `json:"actionUrl" binding:"required,url"`
	FormFields   map[string]string `json:"formFields" binding:"required"`
	VisitorKey   string            `json:"visitorKey"`
	CaptchaToken string            `json:"captchaToken"`
}

// IntakeResult reports the outcome of an intake submission. LowRating marks
// a submission that was queued but not delivered because its bot-likelihood
// score failed the acceptance threshold.
type IntakeResult struct {
	Success   bool                `json:"success"`
	JobID     string              `json:"jobId,omitempty"`
	Location  string              `json:"location,omitempty"`
	LowRating bool                `json:"lowRating,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}
