package models

import "time"

// CaseAlarm is a case currently breaching its status SLA
type CaseAlarm struct {
	Case            *Case     `json:"case"`
	Rule            string    `json:"rule"`
	Message         string    `json:"message"`
	BusinessDays    int       `json:"business_days"`
	MaxBusinessDays int       `json:"max_business_days"`
	Since           time.Time `json:"since"`
}

// AlarmSummary is pushed to feed subscribers and served by the count endpoint
type AlarmSummary struct {
	Count       int            `json:"count"`
	ByRule      map[string]int `json:"by_rule"`
	GeneratedAt time.Time      `json:"generated_at"`
}
