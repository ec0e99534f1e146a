// Package economy implements the coin ledger: starting balances, match
// payouts, daily rewards and transfers. Balances never go negative.
package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSelfTransfer      = errors.New("cannot give coins to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrHistoryNotSaved means a match was paid out but its record was not
	// stored. Settle still returns the Settlement.
	ErrHistoryNotSaved = errors.New("match paid but not recorded")
)

// credit adds delta to balance, keeping the result within [0, MaxBalance].
func credit(balance, delta int64) int64 {
	return min(max(balance+delta, 0), game.MaxBalance)
}

// Repository is the persistence the ledger needs.
type Repository interface {
	storage.AccountRepository
	storage.MatchRepository
}

// Ledger applies balance changes through a Repository.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a Ledger.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Ledger) open(accounts map[string]*storage.Account, userID string) *storage.Account {
	a := accounts[userID]
	if a == nil {
		now := l.now()
		a = &storage.Account{
			UserID:    userID,
			Balance:   game.StartingBalance,
			CreatedAt: now,
		}
		accounts[userID] = a
	}
	return a
}

// Account returns the user's account, creating it with the starting balance
// on first use.
func (l *Ledger) Account(ctx context.Context, userID string) (*storage.Account, error) {
	a, err := l.repo.GetAccount(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	var created storage.Account
	err = l.repo.UpdateAccounts(ctx, []string{userID}, func(accounts map[string]*storage.Account) error {
		a := l.open(accounts, userID)
		a.UpdatedAt = l.now()
		created = *a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &created, nil
}

// Settlement is the outcome of paying out a match.
type Settlement struct {
	Payouts map[string]int64
	Roles   map[string]game.Role
	Record  *storage.MatchRecord
}

// Settle pays every participant of a finished match by format and role,
// updates win/loss records and stores the match.
func (l *Ledger) Settle(ctx context.Context, res *match.Result) (*Settlement, error) {
	if res == nil {
		return nil, errors.New("settle: nil result")
	}
	roles := res.Roles()
	ids := res.Participants()
	winners := make(map[string]bool, len(res.Winners))
	for _, w := range res.Winners {
		winners[w] = true
	}

	payouts := make(map[string]int64, len(ids))
	for id, role := range roles {
		payouts[id] = game.Reward(res.Format, role)
	}

	err := l.repo.UpdateAccounts(ctx, ids, func(accounts map[string]*storage.Account) error {
		now := l.now()
		for _, id := range ids {
			a := l.open(accounts, id)
			a.Balance = credit(a.Balance, payouts[id])
			a.CoinsEarned += payouts[id]
			a.MatchesPlayed++
			if winners[id] {
				a.Wins++
			} else {
				a.Losses++
			}
			a.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pay out match %s: %w", res.MatchID, err)
	}

	rec := &storage.MatchRecord{
		ID:           res.MatchID,
		Format:       string(res.Format),
		GuildID:      res.GuildID,
		ChannelID:    res.ChannelID,
		Participants: ids,
		Winners:      append([]string(nil), res.Winners...),
		Placements:   res.Participants(),
		Payouts:      payouts,
		Reason:       string(res.Reason),
		Turns:        res.Turns,
		StartedAt:    res.StartedAt,
		EndedAt:      res.EndedAt,
	}
	settlement := &Settlement{Payouts: payouts, Roles: roles, Record: rec}
	if err := l.repo.SaveMatch(ctx, rec); err != nil {
		return settlement, fmt.Errorf("%w: match %s: %w", ErrHistoryNotSaved, res.MatchID, err)
	}
	return settlement, nil
}

// ClaimDaily credits the daily reward and returns the new balance. The
// caller enforces the 24h cooldown.
func (l *Ledger) ClaimDaily(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.repo.UpdateAccounts(ctx, []string{userID}, func(accounts map[string]*storage.Account) error {
		a := l.open(accounts, userID)
		a.Balance = credit(a.Balance, game.DailyReward)
		a.UpdatedAt = l.now()
		balance = a.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to claim daily reward: %w", err)
	}
	return balance, nil
}

// Give moves amount coins from one user to another and returns both new
// balances.
func (l *Ledger) Give(ctx context.Context, fromID, toID string, amount int64) (from, to int64, err error) {
	if amount <= 0 || amount > game.MaxAmount {
		return 0, 0, ErrInvalidAmount
	}
	if fromID == toID {
		return 0, 0, ErrSelfTransfer
	}
	err = l.repo.UpdateAccounts(ctx, []string{fromID, toID}, func(accounts map[string]*storage.Account) error {
		src := l.open(accounts, fromID)
		if src.Balance < amount {
			return ErrInsufficientFunds
		}
		dst := l.open(accounts, toID)
		now := l.now()
		src.Balance -= amount
		dst.Balance = credit(dst.Balance, amount)
		src.UpdatedAt, dst.UpdatedAt = now, now
		from, to = src.Balance, dst.Balance
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// AdminAdjust adds delta (which may be negative) to a balance, clamping at
// zero, and returns the new balance.
func (l *Ledger) AdminAdjust(ctx context.Context, userID string, delta int64) (int64, error) {
	if delta < -game.MaxAmount || delta > game.MaxAmount {
		return 0, ErrInvalidAmount
	}
	var balance int64
	err := l.repo.UpdateAccounts(ctx, []string{userID}, func(accounts map[string]*storage.Account) error {
		a := l.open(accounts, userID)
		a.Balance = credit(a.Balance, delta)
		a.UpdatedAt = l.now()
		balance = a.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return balance, nil
}

// Leaderboard returns up to n accounts, richest first.
func (l *Ledger) Leaderboard(ctx context.Context, n int) ([]*storage.Account, error) {
	if n <= 0 {
		return nil, nil
	}
	return l.repo.TopAccounts(ctx, n)
}

// History returns the user's most recent matches.
func (l *Ledger) History(ctx context.Context, userID string, n int) ([]*storage.MatchRecord, error) {
	return l.repo.RecentMatches(ctx, userID, n)
}
