package lottery

import (
	"context"
	"fmt"

	"lottery/internal/logger"
	"lottery/internal/metrics"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// DepositPrizePool moves amount from the admin into the prize pool.
// Any other caller is rejected before a balance is touched.
func (e *Engine) DepositPrizePool(ctx context.Context, operator solana.PublicKey, amount uint64) error {
	logger.Debug("deposit prize pool: depositing...", logger.Address("operator", operator), zap.Uint64("amount", amount))

	err := e.call(ctx, "deposit_prize_pool", func(tx storage.Tx, state *State) error {
		if !operator.Equals(state.Admin) {
			return fmt.Errorf("%w: %s", ErrUnauthorized, operator)
		}
		if err := state.Custody.Fund(tx, operator, amount); err != nil {
			return fmt.Errorf("fund prize pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.DepositedLamportsTotal.Add(float64(amount))
	logger.Debug("deposit prize pool: depositing... done")
	return nil
}
