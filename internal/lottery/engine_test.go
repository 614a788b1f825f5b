package lottery

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lottery/internal/numbers"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const sol = uint64(1_000_000_000)

var epoch = time.Unix(1_700_000_000, 0)

type fixture struct {
	engine    *Engine
	storage   *storage.SqliteStorage
	clock     *clockwork.FakeClock
	programID solana.PublicKey
	admin     solana.PublicKey
	player    solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := storage.NewSqliteStorage(filepath.Join(t.TempDir(), "lottery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{
		storage:   s,
		clock:     clockwork.NewFakeClockAt(epoch),
		programID: solana.NewWallet().PublicKey(),
		admin:     solana.NewWallet().PublicKey(),
		player:    solana.NewWallet().PublicKey(),
	}

	f.engine, err = NewEngine(Config{
		Storage:   s,
		ProgramID: f.programID,
		Clock:     f.clock,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.engine.Airdrop(ctx, f.admin, 10*sol))
	require.NoError(t, f.engine.Airdrop(ctx, f.player, 10*sol))
	return f
}

// initialized sets the lottery up at epoch and funds the pool with deposit lamports.
func (f *fixture) initialized(t *testing.T, params InitializeParams, deposit uint64) *State {
	t.Helper()

	ctx := context.Background()
	params.Admin = f.admin
	state, err := f.engine.Initialize(ctx, params)
	require.NoError(t, err)
	if deposit > 0 {
		require.NoError(t, f.engine.DepositPrizePool(ctx, f.admin, deposit))
	}
	return state
}

// at moves the clock to epoch + offset seconds.
func (f *fixture) at(offset int64) {
	target := epoch.Add(time.Duration(offset) * time.Second)
	f.clock.Advance(target.Sub(f.clock.Now()))
}

func (f *fixture) balance(t *testing.T, address solana.PublicKey) uint64 {
	t.Helper()

	balance, err := f.engine.Balance(context.Background(), address)
	require.NoError(t, err)
	return balance
}

func TestLottery_Engine_NewEngine(t *testing.T) {
	t.Parallel()

	t.Run("missing storage", func(t *testing.T) {
		t.Parallel()
		engine, err := NewEngine(Config{ProgramID: solana.NewWallet().PublicKey()})
		require.Error(t, err)
		require.Nil(t, engine)
		require.Contains(t, err.Error(), "storage is required")
	})

	t.Run("missing program id", func(t *testing.T) {
		t.Parallel()
		s, err := storage.NewSqliteStorage(filepath.Join(t.TempDir(), "lottery.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		engine, err := NewEngine(Config{Storage: s})
		require.Error(t, err)
		require.Nil(t, engine)
		require.Contains(t, err.Error(), "program id is required")
	})

	t.Run("derives state and custody addresses", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		stateAddress, _, err := solana.FindProgramAddress([][]byte{[]byte("lottery_state")}, f.programID)
		require.NoError(t, err)
		custodyAddress, _, err := solana.FindProgramAddress([][]byte{[]byte("prize_pool")}, f.programID)
		require.NoError(t, err)

		require.Equal(t, stateAddress, f.engine.StateAddress())
		require.Equal(t, custodyAddress, f.engine.CustodyAddress())
	})
}

func TestLottery_Engine_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("creates the record once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.engine.State(ctx)
		require.ErrorIs(t, err, ErrNotInitialized)

		state, err := f.engine.Initialize(ctx, InitializeParams{Admin: f.admin})
		require.NoError(t, err)
		require.Equal(t, f.admin, state.Admin)
		require.Equal(t, uint64(1), state.CurrentRound)
		require.Equal(t, DefaultPrizes, state.Prizes)
		require.Equal(t, numbers.Generate(clockwork.NewFakeClockAt(epoch)), state.WinningNumbers)
		require.Equal(t, f.engine.CustodyAddress(), state.Custody.Address)
		require.NoError(t, state.WinningNumbers.Validate())

		stored, err := f.engine.State(ctx)
		require.NoError(t, err)
		require.Equal(t, state, stored)

		_, err = f.engine.Initialize(ctx, InitializeParams{Admin: f.player})
		require.ErrorIs(t, err, ErrAlreadyInitialized)

		stored, err = f.engine.State(ctx)
		require.NoError(t, err)
		require.Equal(t, f.admin, stored.Admin)
	})

	t.Run("accepts valid overrides", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		winning := numbers.Sequence{7, 3, 9, 1, 5, 2}
		prizes := Prizes{60, 50, 40, 30, 20, 10}
		state := f.initialized(t, InitializeParams{WinningNumbers: &winning, Prizes: &prizes}, 0)
		require.Equal(t, winning, state.WinningNumbers)
		require.Equal(t, prizes, state.Prizes)
	})

	t.Run("rejects invalid overrides", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		winning := numbers.Sequence{51, 3, 9, 1, 5, 2}
		_, err := f.engine.Initialize(ctx, InitializeParams{Admin: f.admin, WinningNumbers: &winning})
		require.ErrorIs(t, err, ErrInvalidState)

		prizes := Prizes{60, 50, 0, 30, 20, 10}
		_, err = f.engine.Initialize(ctx, InitializeParams{Admin: f.admin, Prizes: &prizes})
		require.ErrorIs(t, err, ErrInvalidState)

		_, err = f.engine.Initialize(ctx, InitializeParams{})
		require.ErrorIs(t, err, ErrInvalidState)

		_, err = f.engine.Initialize(ctx, InitializeParams{Admin: f.engine.CustodyAddress()})
		require.ErrorIs(t, err, ErrUnauthorized)
		_, err = f.engine.Initialize(ctx, InitializeParams{Admin: f.engine.StateAddress()})
		require.ErrorIs(t, err, ErrUnauthorized)

		_, err = f.engine.State(ctx)
		require.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestLottery_Engine_DepositPrizePool(t *testing.T) {
	t.Parallel()

	t.Run("admin funds the pool", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 4*sol)

		require.Equal(t, 4*sol, f.balance(t, f.engine.CustodyAddress()))
		require.Equal(t, 6*sol, f.balance(t, f.admin))
	})

	t.Run("non-admin is rejected before any transfer", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 0)

		err := f.engine.DepositPrizePool(context.Background(), f.player, sol)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, 10*sol, f.balance(t, f.player))
		require.Zero(t, f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("admin without funds", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 0)

		err := f.engine.DepositPrizePool(context.Background(), f.admin, 11*sol)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, 10*sol, f.balance(t, f.admin))
	})

	t.Run("before initialize", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		err := f.engine.DepositPrizePool(context.Background(), f.admin, sol)
		require.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestLottery_Engine_SplitCost(t *testing.T) {
	t.Parallel()

	operatorShare, poolShare, err := SplitCost(TicketCost)
	require.NoError(t, err)
	require.Equal(t, uint64(200_000_000), operatorShare)
	require.Equal(t, uint64(1_800_000_000), poolShare)
	require.Equal(t, TicketCost, operatorShare+poolShare)

	operatorShare, poolShare, err = SplitCost(19)
	require.NoError(t, err)
	require.Equal(t, uint64(1), operatorShare)
	require.Equal(t, uint64(18), poolShare)
}

func TestLottery_Engine_Play(t *testing.T) {
	t.Parallel()

	t.Run("no match splits the payment and pays nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		state := f.initialized(t, InitializeParams{}, 5*sol)

		f.at(1)
		result, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.NoError(t, err)
		require.False(t, result.Won)
		require.Equal(t, -1, result.Tier)
		require.Zero(t, result.Prize)
		require.Equal(t, TicketCost, result.Charged)
		_, matched := numbers.Match(state.WinningNumbers, result.Numbers)
		require.False(t, matched)

		require.Equal(t, 8*sol, f.balance(t, f.player))
		require.Equal(t, 5*sol+200_000_000, f.balance(t, f.admin))
		require.Equal(t, 5*sol+1_800_000_000, f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("full match pays the top tier", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		state := f.initialized(t, InitializeParams{}, 5*sol)

		result, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.NoError(t, err)
		require.Equal(t, state.WinningNumbers, result.Numbers)
		require.True(t, result.Won)
		require.Equal(t, 0, result.Tier)
		require.Equal(t, DefaultPrizes[0], result.Prize)

		require.Equal(t, 10*sol-TicketCost+DefaultPrizes[0], f.balance(t, f.player))
		require.Equal(t, 5*sol+1_800_000_000-DefaultPrizes[0], f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("match only at position three pays tier three", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		// 47 is a multiple of 50-3 and of no other position bound.
		f.at(47)
		result, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.NoError(t, err)
		require.True(t, result.Won)
		require.Equal(t, 3, result.Tier)
		require.Equal(t, DefaultPrizes[3], result.Prize)
		require.Equal(t, 10*sol-TicketCost+DefaultPrizes[3], f.balance(t, f.player))
	})

	t.Run("lowest matching position wins", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		// 2352 = 48*49 matches positions one and two.
		f.at(2352)
		result, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.NoError(t, err)
		require.Equal(t, 1, result.Tier)
		require.Equal(t, DefaultPrizes[1], result.Prize)
		require.Equal(t, 10*sol-TicketCost+DefaultPrizes[1], f.balance(t, f.player))
	})

	t.Run("player without funds is charged nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		broke := solana.NewWallet().PublicKey()
		require.NoError(t, f.engine.Airdrop(context.Background(), broke, 1*sol))

		_, err := f.engine.Play(context.Background(), broke, f.admin)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, 1*sol, f.balance(t, broke))
		require.Equal(t, 5*sol, f.balance(t, f.admin))

		plays, err := f.engine.Plays(context.Background(), broke)
		require.NoError(t, err)
		require.Empty(t, plays)
	})

	t.Run("player covering the operator share only is charged nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		short := solana.NewWallet().PublicKey()
		require.NoError(t, f.engine.Airdrop(context.Background(), short, 500_000_000))

		_, err := f.engine.Play(context.Background(), short, f.admin)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, uint64(500_000_000), f.balance(t, short))
		require.Equal(t, 5*sol, f.balance(t, f.admin))
		require.Equal(t, 5*sol, f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("payout larger than the pool rolls the whole call back", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		prizes := Prizes{50 * sol, 5, 4, 3, 2, 1}
		f.initialized(t, InitializeParams{Prizes: &prizes}, sol)

		_, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.ErrorIs(t, err, ErrInsufficientFunds)

		require.Equal(t, 10*sol, f.balance(t, f.player))
		require.Equal(t, 9*sol, f.balance(t, f.admin))
		require.Equal(t, sol, f.balance(t, f.engine.CustodyAddress()))

		plays, err := f.engine.Plays(context.Background(), f.player)
		require.NoError(t, err)
		require.Empty(t, plays)
	})

	t.Run("operator must be the admin", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		_, err := f.engine.Play(context.Background(), f.player, solana.NewWallet().PublicKey())
		require.ErrorIs(t, err, ErrOperatorMismatch)
		require.Equal(t, 10*sol, f.balance(t, f.player))
	})

	t.Run("program addresses cannot play", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)
		ctx := context.Background()

		_, err := f.engine.Play(ctx, f.engine.CustodyAddress(), f.admin)
		require.ErrorIs(t, err, ErrUnauthorized)
		_, err = f.engine.Play(ctx, f.engine.StateAddress(), f.admin)
		require.ErrorIs(t, err, ErrUnauthorized)
		_, err = f.engine.FreePlay(ctx, f.engine.CustodyAddress(), MinReferrals)
		require.ErrorIs(t, err, ErrUnauthorized)

		require.Equal(t, 5*sol, f.balance(t, f.engine.CustodyAddress()))
		require.Equal(t, 5*sol, f.balance(t, f.admin))

		plays, err := f.engine.Plays(ctx, f.engine.CustodyAddress())
		require.NoError(t, err)
		require.Empty(t, plays)
	})

	t.Run("win against an empty pool is paid from the pool share of the same call", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 0)

		result, err := f.engine.Play(context.Background(), f.player, f.admin)
		require.NoError(t, err)
		require.Equal(t, 0, result.Tier)
		require.Equal(t, DefaultPrizes[0], result.Prize)

		require.Equal(t, 10*sol-TicketCost+DefaultPrizes[0], f.balance(t, f.player))
		require.Equal(t, 10*sol+200_000_000, f.balance(t, f.admin))
		require.Equal(t, 1_800_000_000-DefaultPrizes[0], f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("recorded custody tag that no longer derives the pool", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		winning := numbers.Generate(f.clock)
		err := f.storage.Atomic(ctx, func(tx storage.Tx) error {
			record := (&State{
				Address:        f.engine.StateAddress(),
				Admin:          f.admin,
				Custody:        f.engine.custody,
				CurrentRound:   1,
				WinningNumbers: winning,
				Prizes:         DefaultPrizes,
			}).record()
			record.CustodyBump--
			return tx.CreateLotteryState(record)
		})
		require.NoError(t, err)
		require.NoError(t, f.engine.DepositPrizePool(ctx, f.admin, 5*sol))

		_, err = f.engine.Play(ctx, f.player, f.admin)
		require.ErrorIs(t, err, ErrAuthorizationMismatch)
		require.Equal(t, 10*sol, f.balance(t, f.player))
		require.Equal(t, 5*sol, f.balance(t, f.engine.CustodyAddress()))

		f.at(1)
		result, err := f.engine.Play(ctx, f.player, f.admin)
		require.NoError(t, err)
		require.False(t, result.Won)
	})

	t.Run("records history", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)
		ctx := context.Background()

		first, err := f.engine.Play(ctx, f.player, f.admin)
		require.NoError(t, err)
		f.at(1)
		second, err := f.engine.Play(ctx, f.player, f.admin)
		require.NoError(t, err)

		plays, err := f.engine.Plays(ctx, f.player)
		require.NoError(t, err)
		require.Len(t, plays, 2)
		require.Equal(t, second.ID, plays[0].ID)
		require.Equal(t, first.ID, plays[1].ID)
		require.Equal(t, first.Numbers, plays[1].Numbers)
		require.True(t, plays[1].Won)
		require.Equal(t, storage.PaidPlayKind, plays[0].Kind)
		require.False(t, plays[0].Won)
	})
}

func TestLottery_Engine_FreePlay(t *testing.T) {
	t.Parallel()

	t.Run("two referrals are not enough", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		_, err := f.engine.FreePlay(context.Background(), f.player, 2)
		require.ErrorIs(t, err, ErrInsufficientReferrals)
		require.Equal(t, 10*sol, f.balance(t, f.player))
	})

	t.Run("three referrals play without charge", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		f.at(1)
		result, err := f.engine.FreePlay(context.Background(), f.player, 3)
		require.NoError(t, err)
		require.Equal(t, storage.FreePlayKind, result.Kind)
		require.Zero(t, result.Charged)
		require.False(t, result.Won)
		require.Equal(t, 10*sol, f.balance(t, f.player))
		require.Equal(t, 5*sol, f.balance(t, f.admin))
	})

	t.Run("free play can win", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 5*sol)

		result, err := f.engine.FreePlay(context.Background(), f.player, 10)
		require.NoError(t, err)
		require.Equal(t, 0, result.Tier)
		require.Equal(t, 10*sol+DefaultPrizes[0], f.balance(t, f.player))
		require.Equal(t, 5*sol-DefaultPrizes[0], f.balance(t, f.engine.CustodyAddress()))
	})

	t.Run("free play win against an empty pool fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initialized(t, InitializeParams{}, 0)

		_, err := f.engine.FreePlay(context.Background(), f.player, 3)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, 10*sol, f.balance(t, f.player))
	})
}
