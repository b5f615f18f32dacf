// Package deposit validates incoming deposits, signs them and appends them to
// the deposit store.
//
// The signature is a SHA-256 digest over a canonical rendering of the
// record. It carries no key: anyone holding the record can recompute it.
package deposit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/ledger/internal/iban"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/store"
)

type Processor interface {
	Deposit(ctx context.Context, src io.Reader) (string, error)
	DepositFile(ctx context.Context, path string) (string, error)
}

type processor struct {
	store store.Store
	name  string
	now   func() time.Time
}

// NewProcessor returns a Processor appending to the named collection.
func NewProcessor(store store.Store, name string, now func() time.Time) Processor {
	if now == nil {
		now = time.Now
	}
	return &processor{store: store, name: name, now: now}
}

func (p *processor) DepositFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", model.ErrInputNotFound
		}
		return "", fmt.Errorf("%w: %w", model.ErrReadingInput, err)
	}
	defer f.Close()

	return p.Deposit(ctx, f)
}

func (p *processor) Deposit(ctx context.Context, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrReadingInput, err)
	}

	record, err := p.parse(data)
	if err != nil {
		return "", err
	}
	record.Signature = Sign(record)

	err = store.ModifyList(ctx, p.store, p.name, false, func(deposits []model.DepositRecord) ([]model.DepositRecord, error) {
		return append(deposits, record), nil
	})
	if err != nil {
		return "", err
	}

	return record.Signature, nil
}

// parse checks the source payload and builds the unsigned record.
func (p *processor) parse(data []byte) (model.DepositRecord, error) {
	// one JSON value and nothing else
	if !json.Valid(data) {
		return model.DepositRecord{}, model.ErrInvalidJSON
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.DepositRecord{}, model.ErrInvalidStructure
	}
	// keys are matched exactly, unlike struct decoding
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return model.DepositRecord{}, model.ErrInvalidStructure
	}
	rawIBAN, okIBAN := fields[model.DepositKeyIBAN]
	rawAmount, okAmount := fields[model.DepositKeyAmount]
	if !okIBAN || !okAmount {
		return model.DepositRecord{}, model.ErrInvalidStructure
	}

	var value any
	if err := json.Unmarshal(rawIBAN, &value); err != nil || !iban.ValidValue(value) {
		return model.DepositRecord{}, model.ErrIBANNotValid
	}
	account := value.(string)

	amount, err := parseAmount(rawAmount)
	if err != nil {
		return model.DepositRecord{}, err
	}

	return model.DepositRecord{
		Alg:    model.DepositAlgorithm,
		Typ:    model.DepositType,
		IBAN:   account,
		Amount: formatAmount(amount),
		Date:   epochSeconds(p.now()),
	}, nil
}

// parseAmount reads an "EUR <decimal>" string. The amount is kept as a
// binary float and formatted from it, so 2.675 renders as 2.67.
func parseAmount(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, model.ErrAmountFormat
	}
	if !strings.HasPrefix(s, model.DepositCurrency) {
		return 0, model.ErrAmountFormat
	}
	text := strings.TrimSpace(s[len(model.DepositCurrency):])
	// decimal rejects inf, nan and hex forms that ParseFloat would take
	if _, err := decimal.NewFromString(text); err != nil {
		return 0, model.ErrAmountFormat
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, model.ErrAmountFormat
	}
	return amount, nil
}

// formatAmount renders amount with exactly two decimals, rounding the
// exact binary value half to even.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// Sign returns the hex digest of the record's canonical form:
//
//	{alg:SHA-256,typ:DEPOSIT,iban:<iban>,amount:<amount>,deposit_date:<epoch>}
func Sign(record model.DepositRecord) string {
	canonical := fmt.Sprintf("{alg:%s,typ:%s,iban:%s,amount:%s,deposit_date:%s}",
		record.Alg,
		record.Typ,
		record.IBAN,
		record.Amount,
		formatEpoch(record.Date))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// epochSeconds converts t to fractional Unix seconds with microsecond
// precision.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// formatEpoch renders the shortest decimal that reads back as ts, keeping a
// trailing ".0" on whole seconds.
func formatEpoch(ts float64) string {
	s := strconv.FormatFloat(ts, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
