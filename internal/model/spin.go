package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ManualSpin struct {
	Number int
	Stake  decimal.Decimal
}

// ManualBet is a single interactive bet resolved immediately.
// Won is nil until the bet is settled.
type ManualBet struct {
	ID            uuid.UUID
	UserID        int
	Number        int
	Stake         decimal.Decimal
	WinningNumber int
	Won           *bool
	Payout        decimal.Decimal // Net winnings, the returned stake is not included
	CreatedAt     time.Time
}

// Settled reports whether the bet has an outcome
func (b *ManualBet) Settled() bool {
	return b.Won != nil
}

type SpinResult struct {
	BetID         uuid.UUID
	UserID        int
	Number        int
	Stake         decimal.Decimal
	WinningNumber int
	Won           bool
	NetPayout     decimal.Decimal
	NewBalance    decimal.Decimal
	CreatedAt     time.Time
}
