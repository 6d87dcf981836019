package checker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/moamenhredeen/tcobject/internal/object"
	"github.com/moamenhredeen/tcobject/internal/validator"
)

// EventType represents the type of check event
type EventType int

const (
	// EventStarting indicates a check is about to start
	EventStarting EventType = iota
	// EventCompleted indicates a check has completed
	EventCompleted
)

// CheckEvent represents an event during a check run
type CheckEvent struct {
	Type   EventType
	Probe  models.Probe
	Result *models.CheckResult // nil for Starting events
	Index  int                 // current check index (0-based)
	Total  int                 // total number of checks
}

// OnCheckEvent is a callback function for check events
type OnCheckEvent func(event CheckEvent)

// Caller executes object service operations by name
type Caller interface {
	Call(ctx context.Context, name string, args []string, payload, result interface{}, opts ...client.CallOption) (*client.CallSummary, error)
}

// Checker probes a live object service and validates what it answers
type Checker struct {
	caller    Caller
	spec      *apispec.Spec
	validator *validator.Validator
}

// New creates a checker that calls through caller and validates responses
// against spec
func New(caller Caller, spec *apispec.Spec) *Checker {
	return &Checker{
		caller:    caller,
		spec:      spec,
		validator: validator.New(spec),
	}
}

// DefaultProbes exercises every operation on one object: ping, upload the
// object, ask how to download it and fetch its redirect
func DefaultProbes(name, projectID string, expires time.Duration) []models.Probe {
	return []models.Probe{
		{Operation: "ping"},
		{
			Operation: "uploadObject",
			Args:      []string{name},
			Payload: &models.UploadObjectRequest{
				ProjectID: projectID,
				Data:      []byte("tcobject check " + name),
				Expires:   time.Now().Add(expires).UTC().Truncate(time.Second),
			},
		},
		{
			Operation: "fetchObjectMetadata",
			Args:      []string{name},
			Payload:   models.NewDownloadObjectRequest(models.DownloadMethodSimple, models.DownloadMethodGetURL),
			// 406 is a valid answer when the deployment supports neither method
			AcceptStatus: []int{200, 406},
		},
		{
			Operation:    "download",
			Args:         []string{name},
			AcceptStatus: []int{303},
		},
	}
}

// Check runs a single probe
func (c *Checker) Check(ctx context.Context, probe models.Probe) models.CheckResult {
	result := models.CheckResult{
		Operation: probe.Operation,
		Args:      probe.Args,
		Passed:    false,
	}

	op, ok := object.Lookup(probe.Operation)
	if !ok {
		result.Error = fmt.Sprintf("unknown operation %q", probe.Operation)
		return result
	}
	result.Method = op.Method
	result.Route = op.Route

	opDetails, err := c.spec.OperationDetails(op.Name)
	if err != nil {
		result.Error = fmt.Sprintf("failed to get operation details: %v", err)
		return result
	}

	summary, err := c.caller.Call(ctx, op.Name, probe.Args, probe.Payload, nil)
	if summary != nil {
		result.StatusCode = summary.StatusCode
		result.ResponseTime = summary.Duration
		result.Attempts = summary.Attempts
	}

	var httpErr *client.HTTPError
	if err != nil && !(errors.As(err, &httpErr) && accepted(probe, httpErr.StatusCode)) {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}

	if !accepted(probe, result.StatusCode) {
		result.Error = fmt.Sprintf("status %d not accepted", result.StatusCode)
		return result
	}

	// Validate response
	result.ValidationErrors = c.validator.ValidateResponse(opDetails, summary.StatusCode, summary.Header, summary.ResponseBody)

	if len(result.ValidationErrors) == 0 {
		result.Passed = true
	} else {
		var errorMsgs []string
		for _, ve := range result.ValidationErrors {
			errorMsgs = append(errorMsgs, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
		}
		result.Error = fmt.Sprintf("validation failed: %s", strings.Join(errorMsgs, "; "))
	}

	return result
}

// CheckAll runs the probes in order with optional live event reporting.
// Later probes still run when earlier ones fail.
func (c *Checker) CheckAll(ctx context.Context, probes []models.Probe, onEvent OnCheckEvent) models.CheckSummary {
	summary := models.CheckSummary{
		Results: make([]models.CheckResult, 0, len(probes)),
	}
	total := len(probes)

	for i, probe := range probes {
		if ctx.Err() != nil {
			break
		}

		if onEvent != nil {
			onEvent(CheckEvent{Type: EventStarting, Probe: probe, Index: i, Total: total})
		}

		result := c.Check(ctx, probe)
		summary.AddResult(result)

		if onEvent != nil {
			onEvent(CheckEvent{Type: EventCompleted, Probe: probe, Result: &result, Index: i, Total: total})
		}
	}

	return summary
}

func accepted(probe models.Probe, status int) bool {
	if len(probe.AcceptStatus) == 0 {
		return status >= 200 && status < 400
	}
	return slices.Contains(probe.AcceptStatus, status)
}
