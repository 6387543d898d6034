package service

import "time"

// TransactionInput is the inbound payload accepted by the ingestion path. A zero
// Timestamp is replaced by the service clock.
type TransactionInput struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
