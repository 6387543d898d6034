package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
)

// normalizeInput validates a submission and turns it into the stored shape.
// Ids are opaque: only surrounding whitespace is trimmed.
// A zero timestamp takes now(); every timestamp is stored in UTC.
func normalizeInput(input TransactionInput, now func() time.Time) (domain.Transaction, error) {
	from := strings.TrimSpace(input.From)
	to := strings.TrimSpace(input.To)

	switch {
	case from == "" || to == "":
		return domain.Transaction{}, fmt.Errorf("%w: from and to are required", domain.ErrValidation)
	case from == to:
		return domain.Transaction{}, fmt.Errorf("%w: from and to must differ", domain.ErrValidation)
	case math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0):
		return domain.Transaction{}, fmt.Errorf("%w: amount must be a finite number", domain.ErrValidation)
	case input.Amount <= 0:
		return domain.Transaction{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = now()
	}

	return domain.Transaction{
		From:      from,
		To:        to,
		Amount:    input.Amount,
		Timestamp: ts.UTC(),
	}, nil
}

// normalizeFilter rejects inverted ranges and trims the id constraints.
func normalizeFilter(filter domain.TransactionFilter) (domain.TransactionFilter, error) {
	if filter.MinAmount != nil && filter.MaxAmount != nil && *filter.MaxAmount > 0 && *filter.MaxAmount < *filter.MinAmount {
		return filter, fmt.Errorf("%w: maxAmount is below minAmount", domain.ErrValidation)
	}
	if filter.StartTime != nil && filter.EndTime != nil && filter.EndTime.Before(*filter.StartTime) {
		return filter, fmt.Errorf("%w: end is before start", domain.ErrValidation)
	}
	filter.From = strings.TrimSpace(filter.From)
	filter.To = strings.TrimSpace(filter.To)
	return filter, nil
}
