// Package numbers draws lottery sequences and compares them.
//
// A sequence is derived from the unix time reported by the clock: position i is
// (now mod (50-i)) + 1, so it always lies in [1, 50-i]. Two draws taken at the
// same second are identical. The draw is predictable by anyone who can observe
// or influence call timing.
package numbers

import (
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
)

// Length is the number of positions in a sequence.
const Length = 6

// MaxRange is the upper bound of position 0; position i is bounded by MaxRange-i.
const MaxRange = 50

var ErrOutOfRange = errors.New("number out of range")

type Sequence [Length]uint8

// Generate draws a sequence from the clock's current unix time.
func Generate(clock clockwork.Clock) Sequence {
	now := uint64(clock.Now().Unix())

	var sequence Sequence
	for i := range sequence {
		sequence[i] = uint8(now%Bound(i)) + 1
	}
	return sequence
}

// Bound returns the inclusive upper bound of position i.
func Bound(i int) uint64 {
	return uint64(MaxRange - i)
}

// Validate checks every position against its range.
func (s Sequence) Validate() error {
	for i, n := range s {
		if n < 1 || uint64(n) > Bound(i) {
			return fmt.Errorf("%w: position %d is %d, want [1, %d]", ErrOutOfRange, i, n, Bound(i))
		}
	}
	return nil
}

// Match returns the lowest position where player equals winning.
func Match(winning, player Sequence) (int, bool) {
	for i := range winning {
		if player[i] == winning[i] {
			return i, true
		}
	}
	return -1, false
}

func (s Sequence) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

// FromBytes restores a sequence previously produced by Bytes.
func FromBytes(b []byte) (Sequence, error) {
	var sequence Sequence
	if len(b) != Length {
		return sequence, fmt.Errorf("sequence must have %d numbers, got %d", Length, len(b))
	}
	copy(sequence[:], b)
	return sequence, sequence.Validate()
}
