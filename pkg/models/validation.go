package models

// GlobalIndex marks a validation issue that belongs to the request as a
// whole, or to the fully-mutated graph, rather than to one operation.
const GlobalIndex = -1

// ValidationIssue is one finding from graph or request validation.
type ValidationIssue struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	OperationIndex int    `json:"operation_index"` // GlobalIndex when not tied to an operation
	NodeName       string `json:"node_name,omitempty"`
	Hint           string `json:"hint,omitempty"` // short remediation hint
}

// GraphStatistics summarizes a validated graph.
type GraphStatistics struct {
	NodeCount       int `json:"node_count"`
	ConnectionCount int `json:"connection_count"`
	TriggerCount    int `json:"trigger_count"`
	DisabledCount   int `json:"disabled_count"`
}

// ValidationResult separates hard errors from advisory warnings and
// suggestions so callers can choose to block or merely advise.
type ValidationResult struct {
	Valid       bool               `json:"valid"`
	Errors      []*ValidationIssue `json:"errors"`
	Warnings    []*ValidationIssue `json:"warnings"`
	Suggestions []*ValidationIssue `json:"suggestions"`
	Statistics  *GraphStatistics   `json:"statistics,omitempty"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:       true,
		Errors:      make([]*ValidationIssue, 0),
		Warnings:    make([]*ValidationIssue, 0),
		Suggestions: make([]*ValidationIssue, 0),
	}
}

// AddError appends a hard error and flips the result invalid.
func (r *ValidationResult) AddError(issue *ValidationIssue) {
	r.Valid = false
	r.Errors = append(r.Errors, issue)
}

// AddWarning appends an advisory warning.
func (r *ValidationResult) AddWarning(issue *ValidationIssue) {
	r.Warnings = append(r.Warnings, issue)
}

// AddSuggestion appends a non-blocking suggestion.
func (r *ValidationResult) AddSuggestion(issue *ValidationIssue) {
	r.Suggestions = append(r.Suggestions, issue)
}
