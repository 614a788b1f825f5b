package lottery

import (
	"context"
	"errors"
	"fmt"

	"lottery/internal/logger"
	"lottery/internal/numbers"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type InitializeParams struct {
	Admin solana.PublicKey
	// WinningNumbers replaces the sequence drawn from the clock when set.
	WinningNumbers *numbers.Sequence
	// Prizes replaces DefaultPrizes when set.
	Prizes *Prizes
}

// Initialize creates the lottery record once. The winning sequence is drawn from
// the engine clock unless params supply one.
func (e *Engine) Initialize(ctx context.Context, params InitializeParams) (*State, error) {
	logger.Debug("initialize: creating lottery state...", logger.Address("admin", params.Admin))

	state := &State{
		Address:        e.stateAddress,
		StateBump:      e.stateBump,
		Admin:          params.Admin,
		Custody:        e.custody,
		CurrentRound:   1,
		WinningNumbers: numbers.Generate(e.cfg.Clock),
		Prizes:         DefaultPrizes,
	}
	if params.WinningNumbers != nil {
		state.WinningNumbers = *params.WinningNumbers
	}
	if params.Prizes != nil {
		state.Prizes = *params.Prizes
	}
	if err := state.Validate(); err != nil {
		e.fail("initialize", err)
		return nil, err
	}
	if e.programAddress(params.Admin) {
		err := fmt.Errorf("%w: admin %s is a program address", ErrUnauthorized, params.Admin)
		e.fail("initialize", err)
		return nil, err
	}

	err := e.cfg.Storage.Atomic(ctx, func(tx storage.Tx) error {
		_, err := tx.GetLotteryState(state.Address.String())
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load lottery state: %w", err)
		}
		return tx.CreateLotteryState(state.record())
	})
	if err != nil {
		e.fail("initialize", err)
		return nil, err
	}

	logger.Info("initialize: creating lottery state... done",
		logger.Address("state", state.Address),
		logger.Address("custody", state.Custody.Address),
		zap.Uint8s("winning numbers", state.WinningNumbers[:]),
	)
	return state, nil
}
