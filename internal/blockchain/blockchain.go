package blockchain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const LamportsPerSOL = 1_000_000_000

var ErrInvalidAddress = errors.New("invalid address")

// ParseAddress decodes a base58 account address. The zero address is rejected.
func ParseAddress(raw string) (solana.PublicKey, error) {
	address, err := solana.PublicKeyFromBase58(strings.TrimSpace(raw))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, raw, err)
	}
	if address.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%w %q: zero address", ErrInvalidAddress, raw)
	}
	return address, nil
}

// FormatSOL renders lamports as a decimal SOL amount without rounding.
func FormatSOL(lamports uint64) string {
	whole := strconv.FormatUint(lamports/LamportsPerSOL, 10)
	fraction := lamports % LamportsPerSOL
	if fraction == 0 {
		return whole
	}
	return whole + "." + strings.TrimRight(fmt.Sprintf("%09d", fraction), "0")
}
