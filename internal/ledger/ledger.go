// Package ledger moves lamports between accounts held in a balance store.
package ledger

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
)

// Accounts is the balance store a transfer reads and writes. storage.Tx satisfies it.
type Accounts interface {
	GetBalance(address string) (uint64, error)
	SetBalance(address string, lamports uint64) error
}

// Transfer debits from and credits to. Both balances are checked before either is written.
func Transfer(accounts Accounts, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	fromBalance, err := accounts.GetBalance(from.String())
	if err != nil {
		return fmt.Errorf("load %s: %w", from, err)
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, fromBalance, amount)
	}
	if from.Equals(to) {
		return nil
	}

	toBalance, err := accounts.GetBalance(to.String())
	if err != nil {
		return fmt.Errorf("load %s: %w", to, err)
	}
	credited, err := Add(toBalance, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}

	if err := accounts.SetBalance(from.String(), fromBalance-amount); err != nil {
		return fmt.Errorf("save %s: %w", from, err)
	}
	if err := accounts.SetBalance(to.String(), credited); err != nil {
		return fmt.Errorf("save %s: %w", to, err)
	}
	return nil
}

// Credit mints amount into to without a source account.
func Credit(accounts Accounts, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	balance, err := accounts.GetBalance(to.String())
	if err != nil {
		return fmt.Errorf("load %s: %w", to, err)
	}
	credited, err := Add(balance, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return accounts.SetBalance(to.String(), credited)
}

func Balance(accounts Accounts, address solana.PublicKey) (uint64, error) {
	return accounts.GetBalance(address.String())
}

// Add returns a+b or ErrArithmeticOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrArithmeticOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticOverflow
	}
	return diff, nil
}
