package events

import (
	"encoding/json"
	"roulette_backend/internal/model"

	"github.com/nats-io/nats.go"
)

const (
	TypeManualSpin   = "manual_spin"
	TypeRoundSettled = "round_settled"
)

// SettlementResult is published after every committed settlement
type SettlementResult struct {
	Type          string `json:"type"`
	RoundID       string `json:"round_id,omitempty"`
	UserID        int    `json:"user_id,omitempty"`
	WinningNumber int    `json:"winning_number"`
	Won           *bool  `json:"won,omitempty"`
	Payout        string `json:"payout"`
	Bets          int    `json:"bets"`
	Winners       int    `json:"winners"`
	Timestamp     int64  `json:"timestamp"`
}

// Emitter notifies outside listeners about settlements. It never feeds back into settlement.
type Emitter interface {
	EmitSpin(res *model.SpinResult) error
	EmitRoundSettled(res *model.SettleResult) error
	Emit(event SettlementResult) error
	Close()
}

type natsEmitter struct {
	conn    *nats.Conn
	subject string
}

func NewNATSEmitter(conn *nats.Conn, subject string) Emitter {
	return &natsEmitter{
		conn:    conn,
		subject: subject,
	}
}

func (e *natsEmitter) EmitSpin(res *model.SpinResult) error {
	return e.Emit(SpinEvent(res))
}

func (e *natsEmitter) EmitRoundSettled(res *model.SettleResult) error {
	return e.Emit(RoundEvent(res))
}

func (e *natsEmitter) Emit(event SettlementResult) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.conn.Publish(e.subject, data)
}

func (e *natsEmitter) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func SpinEvent(res *model.SpinResult) SettlementResult {
	won := res.Won
	return SettlementResult{
		Type:          TypeManualSpin,
		UserID:        res.UserID,
		WinningNumber: res.WinningNumber,
		Won:           &won,
		Payout:        res.NetPayout.String(),
		Bets:          1,
		Winners:       boolToInt(res.Won),
		Timestamp:     res.CreatedAt.UTC().Unix(),
	}
}

func RoundEvent(res *model.SettleResult) SettlementResult {
	return SettlementResult{
		Type:          TypeRoundSettled,
		RoundID:       res.RoundID.String(),
		WinningNumber: res.WinningNumber,
		Payout:        res.TotalPaid.String(),
		Bets:          res.SettledBetCount,
		Winners:       res.WinnerCount,
		Timestamp:     res.CompletedAt.UTC().Unix(),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type noopEmitter struct{}

// NewNoopEmitter is used when no broker is configured
func NewNoopEmitter() Emitter {
	return noopEmitter{}
}

func (noopEmitter) EmitSpin(*model.SpinResult) error           { return nil }
func (noopEmitter) EmitRoundSettled(*model.SettleResult) error { return nil }
func (noopEmitter) Emit(SettlementResult) error                { return nil }
func (noopEmitter) Close()                                     {}
