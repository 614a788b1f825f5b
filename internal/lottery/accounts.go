package lottery

import (
	"context"

	"lottery/internal/ledger"
	"lottery/internal/logger"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Balance returns the lamports held by address.
func (e *Engine) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	var balance uint64
	err := e.cfg.Storage.Atomic(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = ledger.Balance(tx, address)
		return err
	})
	return balance, err
}

// Airdrop credits lamports out of nothing, like a local validator faucet.
func (e *Engine) Airdrop(ctx context.Context, to solana.PublicKey, amount uint64) error {
	logger.Debug("airdrop: crediting...", logger.Address("to", to), zap.Uint64("amount", amount))

	err := e.cfg.Storage.Atomic(ctx, func(tx storage.Tx) error {
		return ledger.Credit(tx, to, amount)
	})
	if err != nil {
		e.fail("airdrop", err)
		return err
	}

	logger.Debug("airdrop: crediting... done")
	return nil
}
