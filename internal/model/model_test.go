package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindMalformed, KindOf(ErrInvalidJSON))
	require.Equal(t, KindValidation, KindOf(fmt.Errorf("submit: %w", ErrDateNotValid)))
	require.Equal(t, KindIntegrity, KindOf(ErrTransferExists))
	require.Equal(t, KindNotFound, KindOf(ErrIBANNotFound))
	require.Equal(t, KindIO, KindOf(errors.Join(ErrReadingInput, errors.New("EIO"))))
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfSeveralSentinels(t *testing.T) {
	for i := 0; i < 100; i++ {
		require.Equal(t, KindMalformed, KindOf(errors.Join(ErrReadingSource, ErrIBANNotFound)))
		require.Equal(t, KindMalformed, KindOf(errors.Join(ErrIBANNotFound, ErrReadingSource)))
		require.Equal(t, KindValidation, KindOf(errors.Join(ErrTransferExists, ErrDateNotValid)))
	}
}

func TestSourceTransactionValue(t *testing.T) {
	tests := []struct {
		amount string
		want   string
		ok     bool
	}{
		{amount: `100`, want: "100", ok: true},
		{amount: `-20.5`, want: "-20.5", ok: true},
		{amount: `"+100.00"`, want: "100", ok: true},
		{amount: `" 7.25 "`, want: "7.25", ok: true},
		{amount: `"-3"`, want: "-3", ok: true},
		{amount: `"++3"`},
		{amount: `"abc"`},
		{amount: `""`},
		{amount: `true`},
		{amount: `null`},
		{amount: `{"v": 1}`},
		{amount: `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			v, ok := SourceTransaction{Amount: json.RawMessage(tt.amount)}.Value()
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.want, v.String())
			}
		})
	}

	// missing amount
	_, ok := SourceTransaction{}.Value()
	require.False(t, ok)
}

func TestSourceTransactionHasIBAN(t *testing.T) {
	tr := SourceTransaction{IBAN: json.RawMessage(`"ES9121000418450200051332"`)}
	require.True(t, tr.HasIBAN("ES9121000418450200051332"))
	require.False(t, tr.HasIBAN("ES6160606457126971492537"))

	tr = SourceTransaction{IBAN: json.RawMessage(`24`)}
	require.False(t, tr.HasIBAN("24"))
}

func TestTransferTypeValid(t *testing.T) {
	require.True(t, TransferTypeImmediate.Valid())
	require.False(t, TransferType("ordinary").Valid())
	require.False(t, TransferType("INMEDIATE").Valid())
}
