package models

import "time"

// StatusChange is one historical transition of a case into Status
type StatusChange struct {
	ID        int        `json:"id"`
	CaseID    int        `json:"case_id"`
	Status    CaseStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// CaseSnapshot is a case with the last time it entered its current status,
// as returned by the aggregate alarm query. LastEnteredAt is zero when the
// current status was never recorded in the history.
type CaseSnapshot struct {
	Case          *Case
	LastEnteredAt time.Time
}
