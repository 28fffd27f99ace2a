package models

import "time"

// CreditAccount is the per-owner pre-paid balance record
type CreditAccount struct {
	OwnerID   string    `json:"owner_id" badgerhold:"key"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
