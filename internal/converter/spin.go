package converter

import (
	"roulette_backend/internal/api/dto/spin"
	"roulette_backend/internal/model"
)

func ToManualSpin(req spin.SpinRequest) model.ManualSpin {
	return model.ManualSpin{
		Number: req.Number,
		Stake:  req.Stake,
	}
}

func ToSpinResponse(res model.SpinResult) spin.SpinResponse {
	return spin.SpinResponse{
		BetID:         res.BetID,
		Number:        res.Number,
		Stake:         res.Stake,
		WinningNumber: res.WinningNumber,
		Won:           res.Won,
		NetPayout:     res.NetPayout,
		Balance:       res.NewBalance,
		CreatedAt:     res.CreatedAt,
	}
}
