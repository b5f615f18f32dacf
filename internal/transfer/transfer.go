// Package transfer validates outbound transfer requests and records them in
// the transfer store, refusing exact duplicates.
package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/ledger/internal/iban"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/store"
)

type Recorder interface {
	Submit(ctx context.Context, in model.TransferInput) (string, error)
	List(ctx context.Context) ([]model.TransferRequest, error)
}

const (
	dateLayout = "2/1/2006"

	conceptMinLen   = 10
	conceptMaxLen   = 30
	conceptMinWords = 2

	firstYear = 2025
	lastYear  = 2051 // exclusive
)

var (
	amountPattern = regexp.MustCompile(`^[+-]?\d+(\.\d{1,2})?$`)
	minAmount     = decimal.RequireFromString("10.00")
	maxAmount     = decimal.RequireFromString("10000.00")
)

type recorder struct {
	store store.Store
	name  string
	now   func() time.Time
}

// NewRecorder returns a Recorder keeping transfers in the named collection.
// now is the clock transfer dates are checked against.
func NewRecorder(store store.Store, name string, now func() time.Time) Recorder {
	if now == nil {
		now = time.Now
	}
	return &recorder{store: store, name: name, now: now}
}

type rule struct {
	valid func(in model.TransferInput) bool
	err   error
}

// rules are checked in order, the first one broken is reported.
func (r *recorder) rules() []rule {
	return []rule{
		{func(in model.TransferInput) bool { return iban.Valid(in.FromIBAN) }, model.ErrFromIBANNotValid},
		{func(in model.TransferInput) bool { return iban.Valid(in.ToIBAN) }, model.ErrToIBANNotValid},
		{validConcept, model.ErrConceptNotValid},
		{func(in model.TransferInput) bool { return model.TransferType(in.TransferType).Valid() }, model.ErrTransferTypeNotValid},
		{r.validDate, model.ErrDateNotValid},
		{func(in model.TransferInput) bool { _, ok := parseAmount(in.Amount); return ok }, model.ErrAmountNotValid},
	}
}

func (r *recorder) Submit(ctx context.Context, in model.TransferInput) (string, error) {
	for _, rule := range r.rules() {
		if !rule.valid(in) {
			return "", rule.err
		}
	}

	amount, _ := parseAmount(in.Amount)
	transfer := model.TransferRequest{
		FromIBAN:     in.FromIBAN,
		ToIBAN:       in.ToIBAN,
		Concept:      in.Concept,
		TransferType: model.TransferType(in.TransferType),
		Date:         in.Date,
		Amount:       amount.InexactFloat64(),
		TransferCode: Code(in, amount),
	}

	err := store.ModifyList(ctx, r.store, r.name, true, func(transfers []model.TransferRequest) ([]model.TransferRequest, error) {
		for _, t := range transfers {
			if t == transfer {
				return nil, model.ErrTransferExists
			}
		}
		return append(transfers, transfer), nil
	})
	if err != nil {
		return "", err
	}

	return transfer.TransferCode, nil
}

func (r *recorder) List(ctx context.Context) ([]model.TransferRequest, error) {
	transfers, err := store.LoadList[model.TransferRequest](ctx, r.store, r.name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.TransferRequest{}, nil
		}
		return nil, err
	}
	return transfers, nil
}

// Code derives the transfer code: an MD5 digest over the validated fields in
// a fixed order. Identical requests always get the same code.
func Code(in model.TransferInput, amount decimal.Decimal) string {
	canonical := fmt.Sprintf("Transfer:{from_iban:%s,to_iban:%s,concept:%s,transfer_type:%s,date:%s,amount:%s}",
		in.FromIBAN,
		in.ToIBAN,
		in.Concept,
		in.TransferType,
		in.Date,
		amount.StringFixed(2))
	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func validConcept(in model.TransferInput) bool {
	n := utf8.RuneCountInString(in.Concept)
	if n < conceptMinLen || n > conceptMaxLen {
		return false
	}
	return len(strings.Fields(in.Concept)) >= conceptMinWords
}

func (r *recorder) validDate(in model.TransferInput) bool {
	now := r.now()
	date, err := time.ParseInLocation(dateLayout, in.Date, now.Location())
	if err != nil {
		return false
	}
	if date.Year() < firstYear || date.Year() >= lastYear {
		return false
	}
	return !date.Before(now)
}

// parseAmount accepts plain decimals with at most two fractional digits
// within the transfer limits.
func parseAmount(s string) (decimal.Decimal, bool) {
	if !amountPattern.MatchString(s) {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
		return decimal.Zero, false
	}
	return amount, true
}
