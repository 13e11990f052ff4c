package model

import "time"

// Quote is the latest known price for a ticker as reported by a quote source.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}
