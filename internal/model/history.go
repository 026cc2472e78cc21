package model

import (
	"fmt"
	"time"
)

// Step is a pipeline stage recorded in the journal
type Step string

const (
	StepSubmit     Step = "submit"
	StepHandle     Step = "handle"
	StepMakePublic Step = "make_public"
	StepDecrypt    Step = "decrypt"
)

// Status is the outcome of a journaled step
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is one journaled pipeline step
type Entry struct {
	ID        uint64    `json:"id"`
	Dapp      string    `json:"dapp"`
	Step      Step      `json:"step"`
	Name      string    `json:"name"` // action or result name
	Status    Status    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	Block     uint64    `json:"block,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	Value     string    `json:"value,omitempty"`
	Label     string    `json:"label,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryRequest represents filter parameters for GET .../history
type HistoryRequest struct {
	Name   *string    `form:"action"`
	Step   *Step      `form:"step"`
	Status *Status    `form:"status"`
	From   *time.Time `form:"from"`
	To     *time.Time `form:"to"`
	Limit  int        `form:"limit"`
}

// Validate validates HistoryRequest filter parameters.
func (r *HistoryRequest) Validate() error {
	if r.Step != nil {
		switch *r.Step {
		case StepSubmit, StepHandle, StepMakePublic, StepDecrypt:
		default:
			return fmt.Errorf("step must be submit, handle, make_public or decrypt")
		}
	}
	if r.Status != nil && *r.Status != StatusOK && *r.Status != StatusFailed {
		return fmt.Errorf("status must be ok or failed")
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// Match reports whether e passes the filter.
func (r *HistoryRequest) Match(e *Entry) bool {
	if r == nil {
		return true
	}
	if r.Name != nil && e.Name != *r.Name {
		return false
	}
	if r.Step != nil && e.Step != *r.Step {
		return false
	}
	if r.Status != nil && e.Status != *r.Status {
		return false
	}
	if r.From != nil && e.Timestamp.Before(*r.From) {
		return false
	}
	if r.To != nil && e.Timestamp.After(*r.To) {
		return false
	}
	return true
}

// HistoryResponse represents response for GET .../history
type HistoryResponse struct {
	Dapp    string  `json:"dapp"`
	Entries []Entry `json:"entries"`
}
