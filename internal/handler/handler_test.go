package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/ledger/internal/auth"
	authConfig "github.com/iurnickita/ledger/internal/auth/config"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/service"
	serviceConfig "github.com/iurnickita/ledger/internal/service/config"
	"github.com/iurnickita/ledger/internal/store"
	storeConfig "github.com/iurnickita/ledger/internal/store/config"
)

const (
	ibanFrom = "ES9121000418450200051332"
	ibanTo   = "ES6160606457126971492537"
)

func newTestRouter(t *testing.T, authCfg authConfig.Config) (http.Handler, store.Store) {
	s, err := store.NewStore(storeConfig.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2025, time.May, 23, 0, 0, 0, 0, time.UTC) }
	svc := service.NewService(serviceConfig.Config{
		TransfersStore:    "transactions.json",
		DepositsStore:     "deposits.json",
		TransactionsStore: "transactions2.json",
		BalancesStore:     "saldos.json",
	}, s, now, zap.NewNop())

	return NewRouter(auth.NewAuth(authCfg), svc, zap.NewNop()), s
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestTransfers(t *testing.T) {
	router, _ := newTestRouter(t, authConfig.Config{})

	w := do(router, http.MethodGet, "/api/transfers", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	body := `{"from_iban": "ES9121000418450200051332", "to_iban": "ES6160606457126971492537",
		"concept": "Pago alquiler", "transfer_type": "ORDINARY", "date": "01/01/2027", "amount": "10.00"}`
	w = do(router, http.MethodPost, "/api/transfers", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var response PostTransferJSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "2ec4ed2827fdd1a692c3245b4638fe59", response.TransferCode)

	w = do(router, http.MethodPost, "/api/transfers", body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), model.ErrTransferExists.Error())

	w = do(router, http.MethodGet, "/api/transfers", "")
	require.Equal(t, http.StatusOK, w.Code)
	var transfers []model.TransferRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transfers))
	require.Len(t, transfers, 1)
	require.Equal(t, 10.0, transfers[0].Amount)
}

func TestTransferErrors(t *testing.T) {
	router, _ := newTestRouter(t, authConfig.Config{})

	tests := []struct {
		name string
		body string
		code int
		want error
	}{
		{
			name: "not json",
			body: `{"from_iban":`,
			code: http.StatusBadRequest,
			want: model.ErrInvalidJSON,
		},
		{
			name: "bad from iban",
			body: `{"from_iban": "ES9121000418450200051333", "to_iban": "ES6160606457126971492537",
				"concept": "Pago alquiler", "transfer_type": "ORDINARY", "date": "01/01/2027", "amount": "10.00"}`,
			code: http.StatusUnprocessableEntity,
			want: model.ErrFromIBANNotValid,
		},
		{
			name: "numeric amount out of range",
			body: `{"from_iban": "ES9121000418450200051332", "to_iban": "ES6160606457126971492537",
				"concept": "Pago alquiler", "transfer_type": "ORDINARY", "date": "01/01/2027", "amount": 9.99}`,
			code: http.StatusUnprocessableEntity,
			want: model.ErrAmountNotValid,
		},
		{
			name: "missing amount",
			body: `{"from_iban": "ES9121000418450200051332", "to_iban": "ES6160606457126971492537",
				"concept": "Pago alquiler", "transfer_type": "ORDINARY", "date": "01/01/2027"}`,
			code: http.StatusUnprocessableEntity,
			want: model.ErrAmountNotValid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/transfers", tt.body)
			require.Equal(t, tt.code, w.Code)
			require.Contains(t, w.Body.String(), tt.want.Error())
		})
	}

	w := do(router, http.MethodGet, "/api/transfers", "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestNumericTransferAmount(t *testing.T) {
	router, _ := newTestRouter(t, authConfig.Config{})

	w := do(router, http.MethodPost, "/api/transfers", `{"from_iban": "ES9121000418450200051332",
		"to_iban": "ES6160606457126971492537", "concept": "Pago alquiler", "transfer_type": "URGENT",
		"date": "01/01/2027", "amount": 250.5}`)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestDeposits(t *testing.T) {
	router, _ := newTestRouter(t, authConfig.Config{})

	w := do(router, http.MethodPost, "/api/deposits", `{"IBAN": "ES9121000418450200051332", "AMOUNT": "EUR 123.45"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var response PostDepositJSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "3814f093d40db77f64796fef98a0467e8516dbedf5ff918c85c7a61b5f436c52", response.DepositSignature)

	w = do(router, http.MethodPost, "/api/deposits", `{"IBAN": "ES9121000418450200051332"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), model.ErrInvalidStructure.Error())

	w = do(router, http.MethodPost, "/api/deposits", `{"IBAN": "ES9121000418450200051332", "AMOUNT": "USD 1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBalances(t *testing.T) {
	router, s := newTestRouter(t, authConfig.Config{})

	w := do(router, http.MethodPost, "/api/balances/"+ibanFrom, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), model.ErrSourceNotFound.Error())

	err := s.Modify(context.Background(), "transactions2.json", func([]byte) ([]byte, error) {
		return []byte(`[{"IBAN": "ES9121000418450200051332", "amount": "100.25"}]`), nil
	})
	require.NoError(t, err)

	w = do(router, http.MethodPost, "/api/balances/"+ibanFrom, "")
	require.Equal(t, http.StatusOK, w.Code)
	var response PostBalanceJSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.True(t, response.Recalculated)

	w = do(router, http.MethodGet, "/api/balances/"+ibanFrom, "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry model.BalanceEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	require.Equal(t, 100.25, entry.Saldos)

	w = do(router, http.MethodPost, "/api/balances/"+ibanTo, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/balances/ES0000000000000000000000", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodGet, "/api/balances/"+ibanTo, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBalanceCorruptSource(t *testing.T) {
	router, s := newTestRouter(t, authConfig.Config{})

	err := s.Modify(context.Background(), "transactions2.json", func([]byte) ([]byte, error) {
		return []byte(`[{"IBAN": `), nil
	})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/balances/"+ibanFrom, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthRequired(t *testing.T) {
	cfg := authConfig.Config{Secret: "s3cret", TokenTTL: time.Hour}
	router, _ := newTestRouter(t, cfg)

	w := do(router, http.MethodGet, "/api/transfers", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	tokenString, err := auth.NewAuth(cfg).IssueToken("teller-1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/transfers", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestBodyTooLarge(t *testing.T) {
	router, s := newTestRouter(t, authConfig.Config{})

	padding := strings.Repeat(" ", MaxBodyBytes)
	w := do(router, http.MethodPost, "/api/deposits", `{"IBAN": "ES9121000418450200051332",`+padding+`"AMOUNT": "EUR 1"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	_, err := s.Read(context.Background(), "deposits.json")
	require.ErrorIs(t, err, store.ErrNotFound)

	w = do(router, http.MethodPost, "/api/transfers", `{"concept": "`+strings.Repeat("x", MaxBodyBytes)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// right at the limit is still read
	body := `{"IBAN": "ES9121000418450200051332", "AMOUNT": "EUR 1"}`
	w = do(router, http.MethodPost, "/api/deposits", body+strings.Repeat(" ", MaxBodyBytes-len(body)))
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusRequestEntityTooLarge,
		StatusOf(fmt.Errorf("%w: %w", model.ErrReadingInput, &http.MaxBytesError{Limit: 1})))
	require.Equal(t, http.StatusInternalServerError, StatusOf(model.ErrReadingInput))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.Join(model.ErrReadingSource, model.ErrIBANNotFound)))
	require.Equal(t, http.StatusNotFound, StatusOf(model.ErrInputNotFound))
	require.Equal(t, http.StatusConflict, StatusOf(model.ErrTransferExists))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestRawAmount(t *testing.T) {
	require.Equal(t, "10.00", rawAmount(json.RawMessage(`"10.00"`)))
	require.Equal(t, "250.5", rawAmount(json.RawMessage(`250.5`)))
	require.Equal(t, "", rawAmount(json.RawMessage(`null`)))
	require.Equal(t, "", rawAmount(nil))
	require.Equal(t, "true", rawAmount(json.RawMessage(`true`)))
}
