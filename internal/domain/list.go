package domain

import "time"

// TransactionFilter narrows edge lookups. Zero values mean "no constraint".
type TransactionFilter struct {
	From      string
	To        string
	StartTime *time.Time
	EndTime   *time.Time
	MinAmount *float64
	MaxAmount *float64
	Limit     int
}
