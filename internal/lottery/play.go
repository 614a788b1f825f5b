package lottery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lottery/internal/custody"
	"lottery/internal/ledger"
	"lottery/internal/logger"
	"lottery/internal/metrics"
	"lottery/internal/numbers"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TicketCost is charged for every paid play.
const TicketCost uint64 = 2_000_000_000

// OperatorShareDivisor sets the operator cut: TicketCost / OperatorShareDivisor.
const OperatorShareDivisor = 10

type PlayResult struct {
	ID       uuid.UUID        `json:"id"`
	Player   solana.PublicKey `json:"player"`
	Kind     storage.PlayKind `json:"kind"`
	Numbers  numbers.Sequence `json:"numbers"`
	Won      bool             `json:"won"`
	Tier     int              `json:"tier"`
	Prize    uint64           `json:"prize"`
	Charged  uint64           `json:"charged"`
	PlayedAt time.Time        `json:"playedAt"`
}

// SplitCost returns the operator and pool shares of cost.
func SplitCost(cost uint64) (operatorShare, poolShare uint64, err error) {
	operatorShare = cost / OperatorShareDivisor
	poolShare, err = ledger.Sub(cost, operatorShare)
	if err != nil {
		return 0, 0, err
	}
	return operatorShare, poolShare, nil
}

// Play charges the player, splits the payment between operator and pool, draws a
// player sequence and pays the tier of the first matching position.
func (e *Engine) Play(ctx context.Context, player, operator solana.PublicKey) (*PlayResult, error) {
	logger.Debug("play: charging player...", logger.Address("player", player))

	if e.programAddress(player) {
		err := fmt.Errorf("%w: player %s is a program address", ErrUnauthorized, player)
		e.fail("play", err)
		return nil, err
	}

	var result *PlayResult
	err := e.call(ctx, "play", func(tx storage.Tx, state *State) error {
		if !operator.Equals(state.Admin) {
			return fmt.Errorf("%w: %s", ErrOperatorMismatch, operator)
		}

		operatorShare, poolShare, err := SplitCost(TicketCost)
		if err != nil {
			return err
		}
		if err := ledger.Transfer(tx, player, operator, operatorShare); err != nil {
			return fmt.Errorf("pay operator: %w", err)
		}
		if err := state.Custody.Fund(tx, player, poolShare); err != nil {
			return fmt.Errorf("pay prize pool: %w", err)
		}

		result, err = e.settle(tx, state, player, storage.PaidPlayKind, TicketCost)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ChargedLamportsTotal.Add(float64(TicketCost))
	observe(result)
	return result, nil
}

// settle draws the player sequence, pays at most one tier and records the play.
func (e *Engine) settle(tx storage.Tx, state *State, player solana.PublicKey, kind storage.PlayKind, charged uint64) (*PlayResult, error) {
	sequence := numbers.Generate(e.cfg.Clock)
	result := &PlayResult{
		ID:       uuid.New(),
		Player:   player,
		Kind:     kind,
		Numbers:  sequence,
		Tier:     -1,
		Charged:  charged,
		PlayedAt: e.cfg.Clock.Now().UTC(),
	}

	logger.Debug(kind+" play: sequence drawn", logger.Address("player", player), zap.Uint8s("numbers", sequence[:]))

	if tier, ok := numbers.Match(state.WinningNumbers, sequence); ok {
		prize := state.Prizes[tier]

		authority, err := custody.Sign(e.cfg.ProgramID, state.Custody.Bump)
		if err != nil {
			return nil, err
		}
		if err := state.Custody.Payout(tx, authority, player, prize); err != nil {
			return nil, fmt.Errorf("pay tier %d: %w", tier, err)
		}

		result.Won = true
		result.Tier = tier
		result.Prize = prize
	}

	err := tx.CreatePlay(&storage.PlayRecord{
		ID:           result.ID.String(),
		StateAddress: state.Address.String(),
		Player:       player.String(),
		Kind:         kind,
		Numbers:      sequence.Bytes(),
		Tier:         result.Tier,
		Prize:        result.Prize,
		Charged:      charged,
		PlayedAt:     result.PlayedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("record play: %w", err)
	}
	return result, nil
}

func observe(result *PlayResult) {
	if !result.Won {
		metrics.PlaysTotal.WithLabelValues(result.Kind, "no_win").Inc()
		logger.Debug(result.Kind+" play: no win", logger.Address("player", result.Player))
		return
	}

	metrics.PlaysTotal.WithLabelValues(result.Kind, "win").Inc()
	metrics.PayoutsTotal.WithLabelValues(strconv.Itoa(result.Tier)).Inc()
	metrics.PayoutLamportsTotal.Add(float64(result.Prize))
	logger.Info(result.Kind+" play: player won",
		logger.Address("player", result.Player),
		zap.Int("tier", result.Tier),
		zap.Uint64("prize", result.Prize),
	)
}
