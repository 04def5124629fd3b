package round

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateRoundRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"` // RFC 3339
}

type PlaceBetRequest struct {
	CustomerName  string          `json:"customer_name"`
	CustomerPhone *string         `json:"customer_phone,omitempty"`
	Number        int             `json:"number"`
	Stake         decimal.Decimal `json:"stake"`
}

type RoundResponse struct {
	ID            uuid.UUID  `json:"id"`
	ScheduledFor  time.Time  `json:"scheduled_for"`
	Status        string     `json:"status"`
	WinningNumber *int       `json:"winning_number,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type RoundOverview struct {
	RoundResponse
	TotalBets  int             `json:"total_bets"`
	TotalStake decimal.Decimal `json:"total_stake"`
}

type BetResponse struct {
	ID            uuid.UUID       `json:"id"`
	RoundID       uuid.UUID       `json:"round_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone *string         `json:"customer_phone,omitempty"`
	TicketNumber  string          `json:"ticket_number"`
	Number        int             `json:"number"`
	Stake         decimal.Decimal `json:"stake"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SettleResponse struct {
	RoundID         uuid.UUID       `json:"round_id"`
	WinningNumber   int             `json:"winning_number"`
	SettledBetCount int             `json:"settled_bet_count"`
	WinnerCount     int             `json:"winner_count"`
	TotalStaked     decimal.Decimal `json:"total_staked"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	CompletedAt     time.Time       `json:"completed_at"`
}

type DrainResponse struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type PendingRound struct {
	RoundResponse
	Bets    int `json:"bets"`
	Minutes int `json:"minutes"` // Overdue by, or starting in
}

type PendingSummaryResponse struct {
	Total    int            `json:"total"`
	Overdue  []PendingRound `json:"overdue"`
	Upcoming []PendingRound `json:"upcoming"`
}
