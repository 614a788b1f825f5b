package lottery

import (
	"context"
	"errors"
	"fmt"

	"lottery/internal/custody"
	"lottery/internal/logger"
	"lottery/internal/metrics"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Config struct {
	Storage   storage.Storage
	ProgramID solana.PublicKey
	Clock     clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Storage == nil {
		return errors.New("storage is required")
	}
	if cfg.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Engine runs lottery calls. Every call executes inside one storage atomic unit,
// so a failing step leaves no balance, state or history change behind.
type Engine struct {
	cfg          Config
	stateAddress solana.PublicKey
	stateBump    uint8
	custody      custody.Account
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stateAddress, stateBump, err := solana.FindProgramAddress([][]byte{[]byte(StateSeed)}, cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive state address: %w", err)
	}

	custodyAccount, err := custody.Derive(cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	logger.Debug("engine: derived program addresses",
		logger.Address("program", cfg.ProgramID),
		logger.Address("state", stateAddress),
		logger.Address("custody", custodyAccount.Address),
	)

	return &Engine{
		cfg:          cfg,
		stateAddress: stateAddress,
		stateBump:    stateBump,
		custody:      custodyAccount,
	}, nil
}

func (e *Engine) StateAddress() solana.PublicKey {
	return e.stateAddress
}

func (e *Engine) CustodyAddress() solana.PublicKey {
	return e.custody.Address
}

// programAddress reports whether address is one of the accounts derived from the
// program id. Those accounts have no private key and never act as a caller.
func (e *Engine) programAddress(address solana.PublicKey) bool {
	return address.IsAnyOf(e.stateAddress, e.custody.Address)
}

// call loads the lottery state inside an atomic unit and hands it to fn.
func (e *Engine) call(ctx context.Context, operation string, fn func(tx storage.Tx, state *State) error) error {
	err := e.cfg.Storage.Atomic(ctx, func(tx storage.Tx) error {
		state, err := loadState(tx, e.stateAddress)
		if err != nil {
			return err
		}
		return fn(tx, state)
	})
	if err != nil {
		e.fail(operation, err)
	}
	return err
}

func (e *Engine) fail(operation string, err error) {
	kind := Kind(err)
	metrics.FailuresTotal.WithLabelValues(operation, kind).Inc()
	logger.Warn(operation+": call aborted", zap.String("kind", kind), zap.Error(err))
}

func loadState(tx storage.Tx, address solana.PublicKey) (*State, error) {
	record, err := tx.GetLotteryState(address.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load lottery state: %w", err)
	}
	return stateFromRecord(record)
}

// State returns the current lottery record.
func (e *Engine) State(ctx context.Context) (*State, error) {
	var state *State
	err := e.cfg.Storage.Atomic(ctx, func(tx storage.Tx) error {
		var err error
		state, err = loadState(tx, e.stateAddress)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
