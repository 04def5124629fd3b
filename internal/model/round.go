package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MinNumber and MaxNumber bound the numbers a bet can be placed on.
	MinNumber = 1
	MaxNumber = 30
	// NumbersCount is the size of the wheel
	NumbersCount = MaxNumber - MinNumber + 1
)

// ValidNumber reports whether n is on the wheel
func ValidNumber(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}

// MoneyScale is the number of fractional digits money columns keep
const MoneyScale = 2

// ValidStake reports whether stake is positive and fits MoneyScale without rounding
func ValidStake(stake decimal.Decimal) bool {
	return stake.IsPositive() && stake.Equal(stake.Truncate(MoneyScale))
}

type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundRunning   RoundStatus = "running"
	RoundCompleted RoundStatus = "completed"
)

// Round is a scheduled batch of physically collected bets resolved together.
// WinningNumber and CompletedAt are nil while the round is pending.
type Round struct {
	ID            uuid.UUID
	ScheduledFor  time.Time
	Status        RoundStatus
	WinningNumber *int
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// Bet is a physical bet attached to a round
type Bet struct {
	ID            uuid.UUID
	RoundID       uuid.UUID
	CustomerName  string
	CustomerPhone *string
	TicketNumber  string
	Number        int
	Stake         decimal.Decimal
	Won           bool
	Payout        decimal.Decimal // Gross: stake * multiplier for a winning bet
	CreatedAt     time.Time
}

// Settle marks the bet against the winning number.
// Winning bets are paid stake*multiplier, the rest stay at zero.
func (b *Bet) Settle(winningNumber int, multiplier decimal.Decimal) bool {
	if b.Number != winningNumber {
		b.Won = false
		b.Payout = decimal.Zero
		return false
	}
	b.Won = true
	b.Payout = b.Stake.Mul(multiplier)
	return true
}

type PlaceBet struct {
	CustomerName  string
	CustomerPhone *string
	Number        int
	Stake         decimal.Decimal
}

type SettleResult struct {
	RoundID         uuid.UUID
	WinningNumber   int
	SettledBetCount int
	WinnerCount     int
	TotalStaked     decimal.Decimal
	TotalPaid       decimal.Decimal
	CompletedAt     time.Time
}

type DrainResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// RoundOverview - round with aggregated bet figures
type RoundOverview struct {
	Round      Round
	TotalBets  int
	TotalStake decimal.Decimal
}

type PendingRound struct {
	Round   Round
	Bets    int
	Minutes int // Minutes overdue for overdue rounds, minutes until start for upcoming ones
}

type PendingSummary struct {
	Total    int
	Overdue  []PendingRound
	Upcoming []PendingRound
}
