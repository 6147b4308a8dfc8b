package domain

import "time"

// Account represents a rider's wallet account.
type Account struct {
	ID                    string
	Name                  string
	Phone                 string
	Balance               int64 // currency units, non-negative
	FingerprintRegistered bool
	CreatedAt             time.Time
}
