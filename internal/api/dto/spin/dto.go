package spin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SpinRequest struct {
	Number int             `json:"number"` // 1-30
	Stake  decimal.Decimal `json:"stake"`  // Positive amount, number or string
}

type SpinResponse struct {
	BetID         uuid.UUID       `json:"bet_id"`
	Number        int             `json:"number"`
	Stake         decimal.Decimal `json:"stake"`
	WinningNumber int             `json:"winning_number"`
	Won           bool            `json:"won"`
	NetPayout     decimal.Decimal `json:"net_payout"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}
