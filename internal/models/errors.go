package models

import "errors"

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrInvalidStatus   = errors.New("invalid case status")
	ErrInvalidPriority = errors.New("invalid case priority")
	ErrInvalidCase     = errors.New("invalid case")
)
