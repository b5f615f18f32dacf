// Package balance sums an account's movements from the transaction store and
// accumulates the result into the balance store.
package balance

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/iurnickita/ledger/internal/iban"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/store"
)

type Balance interface {
	Recalculate(ctx context.Context, account string) (bool, error)
	Get(ctx context.Context, account string) (model.BalanceEntry, error)
}

type balance struct {
	store    store.Store
	source   string
	balances string
	now      func() time.Time
}

// NewBalance reads movements from the source collection and keeps totals in
// the balances collection.
func NewBalance(store store.Store, source string, balances string, now func() time.Time) Balance {
	if now == nil {
		now = time.Now
	}
	return &balance{
		store:    store,
		source:   source,
		balances: balances,
		now:      now,
	}
}

func (balance *balance) Recalculate(ctx context.Context, account string) (bool, error) {
	if !iban.Valid(account) {
		return false, model.ErrIBANNotValid
	}

	total, err := balance.sum(ctx, account)
	if err != nil {
		return false, err
	}
	timestamp := float64(balance.now().UnixMicro()) / 1e6

	// Накопление: к сохранённому итогу прибавляется сумма этого прогона
	err = store.ModifyList(ctx, balance.store, balance.balances, true, func(entries []model.BalanceEntry) ([]model.BalanceEntry, error) {
		for i := range entries {
			if entries[i].IBAN == account {
				entries[i].Saldos = round2(entries[i].Saldos + total)
				entries[i].Timestamp = timestamp
				return entries, nil
			}
		}
		return append(entries, model.BalanceEntry{
			IBAN:      account,
			Saldos:    round2(total),
			Timestamp: timestamp,
		}), nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// sum adds up the amounts of every source entry of account. Entries whose
// amount does not parse are skipped, but account must appear at least once.
// The total is left unrounded.
func (balance *balance) sum(ctx context.Context, account string) (float64, error) {
	transactions, err := store.LoadList[model.SourceTransaction](ctx, balance.store, balance.source)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return 0, model.ErrSourceNotFound
		case errors.Is(err, store.ErrMalformed):
			return 0, model.ErrReadingSource
		default:
			return 0, errors.Join(model.ErrReadingSource, err)
		}
	}

	matched := 0
	var amounts []float64
	for _, t := range transactions {
		if !t.HasIBAN(account) {
			continue
		}
		matched++
		if amount, ok := t.Value(); ok {
			amounts = append(amounts, amount.InexactFloat64())
		}
	}
	if matched == 0 {
		return 0, model.ErrIBANNotFound
	}

	return fsum(amounts), nil
}

// fsum adds floats with Neumaier compensation.
func fsum(values []float64) float64 {
	var total, c float64
	for _, v := range values {
		t := total + v
		if math.Abs(total) >= math.Abs(v) {
			c += (total - t) + v
		} else {
			c += (v - t) + total
		}
		total = t
	}
	if c != 0 && !math.IsInf(c, 0) && !math.IsNaN(c) {
		total += c
	}
	return total
}

// round2 rounds x to two decimals from its exact binary value, ties to even.
func round2(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}

func (balance *balance) Get(ctx context.Context, account string) (model.BalanceEntry, error) {
	entries, err := store.LoadList[model.BalanceEntry](ctx, balance.store, balance.balances)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMalformed) {
			return model.BalanceEntry{}, model.ErrIBANNotFound
		}
		return model.BalanceEntry{}, err
	}
	for _, entry := range entries {
		if entry.IBAN == account {
			return entry, nil
		}
	}
	return model.BalanceEntry{}, model.ErrIBANNotFound
}
