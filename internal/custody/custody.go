// Package custody holds the prize pool. The pool has no private key: its address is
// derived from the program id and a seed, and lamports leave it only when the caller
// presents an Authority built by reproducing that derivation.
package custody

import (
	"errors"
	"fmt"

	"lottery/internal/ledger"

	"github.com/gagliardetto/solana-go"
)

const Seed = "prize_pool"

var ErrAuthorizationMismatch = errors.New("authorization mismatch")

type Account struct {
	Address solana.PublicKey `json:"address"`
	Bump    uint8            `json:"bump"`
}

// Derive finds the custody address of programID and the bump that reaches it.
func Derive(programID solana.PublicKey) (Account, error) {
	address, bump, err := solana.FindProgramAddress([][]byte{[]byte(Seed)}, programID)
	if err != nil {
		return Account{}, fmt.Errorf("derive custody address: %w", err)
	}
	return Account{Address: address, Bump: bump}, nil
}

// Authority is the capability to spend from one custody address.
// The zero value authorizes nothing.
type Authority struct {
	address solana.PublicKey
	bump    uint8
	signed  bool
}

// Sign reproduces the derivation for bump. A bump that does not yield a valid
// program address fails with ErrAuthorizationMismatch.
func Sign(programID solana.PublicKey, bump uint8) (Authority, error) {
	address, err := solana.CreateProgramAddress([][]byte{[]byte(Seed), {bump}}, programID)
	if err != nil {
		return Authority{}, fmt.Errorf("%w: %v", ErrAuthorizationMismatch, err)
	}
	return Authority{address: address, bump: bump, signed: true}, nil
}

// Fund moves amount from a funder into the pool.
func (a Account) Fund(accounts ledger.Accounts, from solana.PublicKey, amount uint64) error {
	return ledger.Transfer(accounts, from, a.Address, amount)
}

// Payout moves amount from the pool to a recipient.
func (a Account) Payout(accounts ledger.Accounts, authority Authority, to solana.PublicKey, amount uint64) error {
	if !authority.signed || authority.bump != a.Bump || !authority.address.Equals(a.Address) {
		return ErrAuthorizationMismatch
	}
	return ledger.Transfer(accounts, a.Address, to, amount)
}

func (a Account) Balance(accounts ledger.Accounts) (uint64, error) {
	return ledger.Balance(accounts, a.Address)
}
