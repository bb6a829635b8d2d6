package models

import "errors"

var (
	ErrInvalidJSON       = errors.New("invalid json")
	ErrOutcomeRowMissing = errors.New("outcome row missing")
	ErrInvalidOutcome    = errors.New("invalid outcome")
	ErrRunExists         = errors.New("simulation run already recorded")
)
