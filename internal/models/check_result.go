package models

import "time"

// Probe is one call the checker makes against a live service
type Probe struct {
	Operation string
	Args      []string
	Payload   any

	// AcceptStatus lists the status codes counted as a pass. Empty means any
	// 2xx or 3xx.
	AcceptStatus []int
}

// CheckResult represents the result of probing a single operation
type CheckResult struct {
	// Operation details
	Operation string   `json:"operation"`
	Method    string   `json:"method"`
	Route     string   `json:"route"`
	Args      []string `json:"args,omitempty"`

	// Check status
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`

	// Response details
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time_ns"`
	Attempts     int           `json:"attempts"`

	// Validation details
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// ValidationError represents a specific validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CheckSummary represents the overall check results
type CheckSummary struct {
	TotalChecks int           `json:"total_checks"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Results     []CheckResult `json:"results"`
}

// AddResult adds a check result to the summary
func (s *CheckSummary) AddResult(result CheckResult) {
	s.TotalChecks++
	s.Results = append(s.Results, result)
	if result.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}
