package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Transfers

type TransferType string

const (
	TransferTypeOrdinary  TransferType = "ORDINARY"
	TransferTypeUrgent    TransferType = "URGENT"
	TransferTypeImmediate TransferType = "IMMEDIATE"
)

func (t TransferType) Valid() bool {
	switch t {
	case TransferTypeOrdinary, TransferTypeUrgent, TransferTypeImmediate:
		return true
	}
	return false
}

// TransferInput is a transfer request as received, before validation.
// Amount keeps its textual form so that its precision can be checked.
type TransferInput struct {
	FromIBAN     string `json:"from_iban"`
	ToIBAN       string `json:"to_iban"`
	Concept      string `json:"concept"`
	TransferType string `json:"transfer_type"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
}

// TransferRequest is a validated transfer as kept in the transfer store.
type TransferRequest struct {
	FromIBAN     string       `json:"from_iban"`
	ToIBAN       string       `json:"to_iban"`
	Concept      string       `json:"concept"`
	TransferType TransferType `json:"transfer_type"`
	Date         string       `json:"date"`
	Amount       float64      `json:"amount"`
	TransferCode string       `json:"transfer_code"`
}

// Deposits

const (
	DepositAlgorithm = "SHA-256"
	DepositType      = "DEPOSIT"
	DepositCurrency  = "EUR "
)

const (
	DepositKeyIBAN   = "IBAN"
	DepositKeyAmount = "AMOUNT"
)

// DepositInput is the source payload of a deposit, AMOUNT being formatted
// as "EUR <decimal>".
type DepositInput struct {
	IBAN   string `json:"IBAN"`
	Amount string `json:"AMOUNT"`
}

type DepositRecord struct {
	Alg       string  `json:"alg"`
	Typ       string  `json:"typ"`
	IBAN      string  `json:"iban"`
	Amount    string  `json:"amount"`
	Date      float64 `json:"deposit_date"`
	Signature string  `json:"deposit_signature"`
}

// Balances

// SourceTransaction is one entry of the transaction store scanned by the
// balance aggregator.
type SourceTransaction struct {
	IBAN   json.RawMessage `json:"IBAN"`
	Amount json.RawMessage `json:"amount"`
}

// HasIBAN reports whether the entry belongs to iban. Only string values
// equal to iban match.
func (t SourceTransaction) HasIBAN(iban string) bool {
	var s string
	if err := json.Unmarshal(t.IBAN, &s); err != nil {
		return false
	}
	return s == iban
}

// Value parses the entry amount. Both JSON numbers and numeric strings
// (optionally signed, surrounded by spaces) are accepted.
func (t SourceTransaction) Value() (decimal.Decimal, bool) {
	raw := strings.TrimSpace(string(t.Amount))
	if raw == "" || raw == "null" || raw == "true" || raw == "false" {
		return decimal.Zero, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(t.Amount, &s); err != nil {
			return decimal.Zero, false
		}
		raw = strings.TrimSpace(s)
		if strings.HasPrefix(raw, "+") {
			raw = raw[1:]
			if strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
				return decimal.Zero, false
			}
		}
	}
	if raw == "" || raw[0] == '{' || raw[0] == '[' {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

type BalanceEntry struct {
	IBAN      string  `json:"iban"`
	Saldos    float64 `json:"saldos"`
	Timestamp float64 `json:"timestamp"`
}
