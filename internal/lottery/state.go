package lottery

import (
	"fmt"

	"lottery/internal/custody"
	"lottery/internal/numbers"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
)

const StateSeed = "lottery_state"

// Prizes holds the payout of each tier; tier i pays for a match at position i.
type Prizes [numbers.Length]uint64

var DefaultPrizes = Prizes{
	1_000_000_000,
	500_000_000,
	300_000_000,
	200_000_000,
	100_000_000,
	50_000_000,
}

// State is the lottery record. Only CurrentRound is meant to change after
// initialization, and nothing advances it yet.
type State struct {
	Address        solana.PublicKey `json:"address"`
	StateBump      uint8            `json:"stateBump"`
	Admin          solana.PublicKey `json:"admin"`
	Custody        custody.Account  `json:"custody"`
	CurrentRound   uint64           `json:"currentRound"`
	WinningNumbers numbers.Sequence `json:"winningNumbers"`
	Prizes         Prizes           `json:"prizes"`
}

func (s *State) Validate() error {
	if s.Address.IsZero() {
		return fmt.Errorf("%w: state address is required", ErrInvalidState)
	}
	if s.Admin.IsZero() {
		return fmt.Errorf("%w: admin is required", ErrInvalidState)
	}
	if s.Custody.Address.IsZero() {
		return fmt.Errorf("%w: custody address is required", ErrInvalidState)
	}
	if err := s.WinningNumbers.Validate(); err != nil {
		return fmt.Errorf("%w: winning numbers: %v", ErrInvalidState, err)
	}
	for tier, prize := range s.Prizes {
		if prize == 0 {
			return fmt.Errorf("%w: prize of tier %d is zero", ErrInvalidState, tier)
		}
	}
	return nil
}

func (s *State) record() *storage.LotteryState {
	return &storage.LotteryState{
		Address:        s.Address.String(),
		Admin:          s.Admin.String(),
		CustodyAddress: s.Custody.Address.String(),
		StateBump:      s.StateBump,
		CustodyBump:    s.Custody.Bump,
		CurrentRound:   s.CurrentRound,
		WinningNumbers: s.WinningNumbers.Bytes(),
		Prizes:         append([]uint64(nil), s.Prizes[:]...),
	}
}

func stateFromRecord(record *storage.LotteryState) (*State, error) {
	address, err := solana.PublicKeyFromBase58(record.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: state address: %v", ErrInvalidState, err)
	}
	admin, err := solana.PublicKeyFromBase58(record.Admin)
	if err != nil {
		return nil, fmt.Errorf("%w: admin: %v", ErrInvalidState, err)
	}
	custodyAddress, err := solana.PublicKeyFromBase58(record.CustodyAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: custody address: %v", ErrInvalidState, err)
	}
	winning, err := numbers.FromBytes(record.WinningNumbers)
	if err != nil {
		return nil, fmt.Errorf("%w: winning numbers: %v", ErrInvalidState, err)
	}
	if len(record.Prizes) != numbers.Length {
		return nil, fmt.Errorf("%w: want %d prize tiers, got %d", ErrInvalidState, numbers.Length, len(record.Prizes))
	}

	state := &State{
		Address:        address,
		StateBump:      record.StateBump,
		Admin:          admin,
		Custody:        custody.Account{Address: custodyAddress, Bump: record.CustodyBump},
		CurrentRound:   record.CurrentRound,
		WinningNumbers: winning,
	}
	copy(state.Prizes[:], record.Prizes)
	return state, state.Validate()
}
