package lottery

import (
	"context"
	"fmt"

	"lottery/internal/logger"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// MinReferrals is the referral count that unlocks a free play.
const MinReferrals = 3

// FreePlay draws and settles a play without charging the player.
func (e *Engine) FreePlay(ctx context.Context, player solana.PublicKey, referralCount uint8) (*PlayResult, error) {
	logger.Debug("free play: checking referrals...", logger.Address("player", player), zap.Uint8("referrals", referralCount))

	if e.programAddress(player) {
		err := fmt.Errorf("%w: player %s is a program address", ErrUnauthorized, player)
		e.fail("free_play", err)
		return nil, err
	}
	if referralCount < MinReferrals {
		err := fmt.Errorf("%w: have %d, need %d", ErrInsufficientReferrals, referralCount, MinReferrals)
		e.fail("free_play", err)
		return nil, err
	}

	var result *PlayResult
	err := e.call(ctx, "free_play", func(tx storage.Tx, state *State) error {
		var err error
		result, err = e.settle(tx, state, player, storage.FreePlayKind, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	observe(result)
	return result, nil
}
