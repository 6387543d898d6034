package domain

import "time"

// Transaction models a transfer between two businesses, stored as a directed
// TRANSACTION edge from the paying business to the receiving one.
type Transaction struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// EnrichedTransaction is the notification view of a Transaction with business
// identifiers replaced by display names where the directory knows them.
type EnrichedTransaction struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Business is a node in the transaction graph.
type Business struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
