package models

import (
	"fmt"
	"time"
)

// CaseStatus is the workflow state of a repair case
type CaseStatus string

const (
	StatusCreated           CaseStatus = "created"
	StatusInProgress        CaseStatus = "in_progress"
	StatusOfferCreated      CaseStatus = "offer_created"
	StatusWaitingCustomer   CaseStatus = "waiting_customer"
	StatusOfferAccepted     CaseStatus = "offer_accepted"
	StatusOfferRejected     CaseStatus = "offer_rejected"
	StatusWaitingParts      CaseStatus = "waiting_parts"
	StatusPreparingDelivery CaseStatus = "preparing_delivery"
	StatusReadyForPickup    CaseStatus = "ready_for_pickup"
	StatusCompleted         CaseStatus = "completed"
)

// CaseStatuses lists every workflow state in workflow order
var CaseStatuses = []CaseStatus{
	StatusCreated,
	StatusInProgress,
	StatusOfferCreated,
	StatusWaitingCustomer,
	StatusOfferAccepted,
	StatusOfferRejected,
	StatusWaitingParts,
	StatusPreparingDelivery,
	StatusReadyForPickup,
	StatusCompleted,
}

// Valid returns true for a known status
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusOfferCreated, StatusWaitingCustomer,
		StatusOfferAccepted, StatusOfferRejected, StatusWaitingParts,
		StatusPreparingDelivery, StatusReadyForPickup, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseCaseStatus converts raw input into a CaseStatus
func ParseCaseStatus(raw string) (CaseStatus, error) {
	s := CaseStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Priority is the urgency tier chosen when the case is created
type Priority string

const (
	PriorityFreeDiagnosis Priority = "free_diagnosis"
	PriorityFourDays      Priority = "four_days"
	PriorityFirstPriority Priority = "first_priority"
	PriorityASAP          Priority = "asap"
)

// Priorities lists every priority tier
var Priorities = []Priority{
	PriorityFreeDiagnosis,
	PriorityFourDays,
	PriorityFirstPriority,
	PriorityASAP,
}

// Valid returns true for a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityFreeDiagnosis, PriorityFourDays, PriorityFirstPriority, PriorityASAP:
		return true
	default:
		return false
	}
}

// ParsePriority converts raw input into a Priority
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

type Case struct {
	ID            int        `json:"id"`
	CaseNumber    string     `json:"case_number"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Description   string     `json:"description"`
	Status        CaseStatus `json:"status"`
	Priority      Priority   `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CaseWithAlarm is a case decorated for display with its alarm indicator
type CaseWithAlarm struct {
	*Case
	InAlarm      bool   `json:"in_alarm"`
	AlarmMessage string `json:"alarm_message,omitempty"`
}

// CaseDetail is a single case with its status history
type CaseDetail struct {
	CaseWithAlarm
	History []*StatusChange `json:"history"`
}

// CaseFilter narrows case listings. Zero values mean no filtering.
type CaseFilter struct {
	Status   CaseStatus
	Priority Priority
	Limit    int
	Offset   int
}

// CreateCaseRequest represents the request body for creating a case
type CreateCaseRequest struct {
	CaseNumber    string `json:"case_number"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
}

// UpdateStatusRequest represents the request body for moving a case to a new status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
