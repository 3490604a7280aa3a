package analysis

import "errors"

var (
	ErrUnknownAnalysis  = errors.New("unknown analysis")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)
