package fhir

import "fmt"

// OperationOutcome severity levels per FHIR R4 spec.
const (
	IssueSeverityError       = "error"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes the converter reports.
const (
	IssueTypeInvalid    = "invalid"
	IssueTypeStructure  = "structure"
	IssueTypeNotFound   = "not-found"
	IssueTypeProcessing = "processing"
	IssueTypeException  = "exception"
)

// OperationOutcome communicates the result of an operation in FHIR
// form. The HTTP layer returns one for every error response.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

// OperationOutcomeIssue is a single issue within an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// NewOperationOutcome builds an OperationOutcome with a single issue.
func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{{
			Severity:    severity,
			Code:        code,
			Diagnostics: diagnostics,
		}},
	}
}

// ErrorOutcome builds an error OperationOutcome with issue type
// processing.
func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

// InvalidOutcome builds an error OperationOutcome for malformed input.
func InvalidOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeInvalid, diagnostics)
}

// NotFoundOutcome builds the OperationOutcome for an unknown table.
func NotFoundOutcome(what string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, fmt.Sprintf("%s not found", what))
}

// SuccessOutcome builds an informational OperationOutcome, suitable
// for affirmative results that carry no resource body.
func SuccessOutcome(message string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityInformation, IssueTypeProcessing, message)
}
