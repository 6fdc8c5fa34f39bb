package alarm

import "repair-backend/internal/models"

// RuleKind names the service level a case can break.
type RuleKind string

const (
	RuleNone             RuleKind = ""
	RuleNotStarted       RuleKind = "not_started"
	RuleInProgress       RuleKind = "in_progress"
	RuleAwaitingPickup   RuleKind = "awaiting_pickup"
	RuleAwaitingCustomer RuleKind = "awaiting_customer"
)

// Rule is one row of the alarm table. A case matching Status (and Priority,
// when set) is in alarm once more than MaxBusinessDays business days have
// passed since its reference time.
type Rule struct {
	Kind     RuleKind
	Status   models.CaseStatus
	Priority models.Priority
	// FromCreation pins the reference time to the case creation time instead of
	// the latest history entry for Status.
	FromCreation    bool
	MaxBusinessDays int
	// Message is a fmt template taking the elapsed business days.
	Message string
}

var (
	NotStartedRule = Rule{
		Kind:            RuleNotStarted,
		Status:          models.StatusCreated,
		Priority:        models.PriorityFourDays,
		FromCreation:    true,
		MaxBusinessDays: 4,
		Message:         "Sagen er %d hverdage gammel og ikke påbegyndt (max 4 dage)",
	}
	InProgressRule = Rule{
		Kind:            RuleInProgress,
		Status:          models.StatusInProgress,
		MaxBusinessDays: 1,
		Message:         "Sagen har været påbegyndt i %d hverdage (max 1 dag)",
	}
	AwaitingPickupRule = Rule{
		Kind:            RuleAwaitingPickup,
		Status:          models.StatusReadyForPickup,
		MaxBusinessDays: 14,
		Message:         "Sagen har afventet afhentning i %d hverdage (max 14 dage)",
	}
	AwaitingCustomerRule = Rule{
		Kind:            RuleAwaitingCustomer,
		Status:          models.StatusWaitingCustomer,
		MaxBusinessDays: 14,
		Message:         "Sagen har afventet kunde i %d hverdage (max 14 dage)",
	}
)

// Rules is the complete alarm table.
var Rules = []Rule{
	NotStartedRule,
	InProgressRule,
	AwaitingPickupRule,
	AwaitingCustomerRule,
}

// UnknownAlarmMessage is shown for a breach whose rule carries no message.
const UnknownAlarmMessage = "Ukendt alarm"

// RuleFor returns the rule guarding a case in the given status and priority.
// Cases in statuses without a rule never alarm. A created case is only
// guarded when it has the four_days priority.
func RuleFor(status models.CaseStatus, priority models.Priority) (Rule, bool) {
	switch status {
	case models.StatusCreated:
		if priority == models.PriorityFourDays {
			return NotStartedRule, true
		}
		return Rule{}, false
	case models.StatusInProgress:
		return InProgressRule, true
	case models.StatusReadyForPickup:
		return AwaitingPickupRule, true
	case models.StatusWaitingCustomer:
		return AwaitingCustomerRule, true
	case models.StatusOfferCreated,
		models.StatusOfferAccepted,
		models.StatusOfferRejected,
		models.StatusWaitingParts,
		models.StatusPreparingDelivery,
		models.StatusCompleted:
		return Rule{}, false
	default:
		return Rule{}, false
	}
}

// MonitoredStatuses returns the statuses that have at least one rule.
func MonitoredStatuses() []models.CaseStatus {
	seen := make(map[models.CaseStatus]bool, len(Rules))
	statuses := make([]models.CaseStatus, 0, len(Rules))
	for _, r := range Rules {
		if !seen[r.Status] {
			seen[r.Status] = true
			statuses = append(statuses, r.Status)
		}
	}
	return statuses
}

// Breached reports whether elapsed business days exceed the rule threshold.
func (r Rule) Breached(businessDays int) bool {
	return businessDays > r.MaxBusinessDays
}
