package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type Storage interface {
	// Atomic runs fn as one all-or-nothing unit. Units never interleave.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// play history
	GetPlaysByPlayer(ctx context.Context, player string) ([]*PlayRecord, error)

	Close() error
}

// Tx is the view of the store available inside an atomic unit.
type Tx interface {
	// balance
	GetBalance(address string) (uint64, error)
	SetBalance(address string, lamports uint64) error

	// lottery state
	GetLotteryState(address string) (*LotteryState, error)
	CreateLotteryState(state *LotteryState) error

	// play history
	CreatePlay(play *PlayRecord) error
}

type PlayKind = string

const (
	PaidPlayKind PlayKind = "paid"
	FreePlayKind PlayKind = "free"
)
