// Package client talks to a running ledger server over its HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/iurnickita/ledger/internal/model"
)

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ledger request status: %d: %s", e.Code, e.Message)
}

type Client interface {
	SubmitTransfer(ctx context.Context, in model.TransferInput) (string, error)
	ListTransfers(ctx context.Context) ([]model.TransferRequest, error)
	Deposit(ctx context.Context, in model.DepositInput) (string, error)
	DepositPayload(ctx context.Context, payload []byte) (string, error)
	RecalculateBalance(ctx context.Context, iban string) (bool, error)
	GetBalance(ctx context.Context, iban string) (model.BalanceEntry, error)
}

type client struct {
	resty *resty.Client
}

// NewClient returns a client for the server at serviceAddr. A non-empty
// token is sent as a bearer token with every request.
func NewClient(serviceAddr string, token string) Client {
	if !strings.Contains(serviceAddr, "://") {
		serviceAddr = "http://" + serviceAddr
	}
	r := resty.New().SetBaseURL(serviceAddr)
	if token != "" {
		r.SetAuthToken(token)
	}
	return &client{resty: r}
}

// JSON ответы сервера
type transferAnswer struct {
	TransferCode string `json:"transfer_code"`
}

type depositAnswer struct {
	DepositSignature string `json:"deposit_signature"`
}

type balanceAnswer struct {
	IBAN         string `json:"iban"`
	Recalculated bool   `json:"recalculated"`
}

func (client *client) SubmitTransfer(ctx context.Context, in model.TransferInput) (string, error) {
	var answer transferAnswer
	if err := client.send(ctx, http.MethodPost, "/api/transfers", in, http.StatusCreated, &answer); err != nil {
		return "", err
	}
	return answer.TransferCode, nil
}

func (client *client) ListTransfers(ctx context.Context) ([]model.TransferRequest, error) {
	var transfers []model.TransferRequest
	if err := client.send(ctx, http.MethodGet, "/api/transfers", nil, http.StatusOK, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (client *client) Deposit(ctx context.Context, in model.DepositInput) (string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return client.DepositPayload(ctx, payload)
}

// DepositPayload sends payload to the server untouched, so that its
// structure is checked there.
func (client *client) DepositPayload(ctx context.Context, payload []byte) (string, error) {
	var answer depositAnswer
	if err := client.send(ctx, http.MethodPost, "/api/deposits", payload, http.StatusCreated, &answer); err != nil {
		return "", err
	}
	return answer.DepositSignature, nil
}

func (client *client) RecalculateBalance(ctx context.Context, iban string) (bool, error) {
	var answer balanceAnswer
	if err := client.send(ctx, http.MethodPost, "/api/balances/"+iban, nil, http.StatusOK, &answer); err != nil {
		return false, err
	}
	return answer.Recalculated, nil
}

func (client *client) GetBalance(ctx context.Context, iban string) (model.BalanceEntry, error) {
	var entry model.BalanceEntry
	if err := client.send(ctx, http.MethodGet, "/api/balances/"+iban, nil, http.StatusOK, &entry); err != nil {
		return model.BalanceEntry{}, err
	}
	return entry, nil
}

// send performs the request and decodes the answer into out. No content is
// a successful empty answer.
func (client *client) send(ctx context.Context, method, path string, body any, want int, out any) error {
	setreq := client.resty.R().SetContext(ctx)
	if body != nil {
		setreq.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	setresp, err := setreq.Execute(method, path)
	if err != nil {
		return err
	}

	switch setresp.StatusCode() {
	case want:
		return json.Unmarshal(setresp.Body(), out)
	case http.StatusNoContent:
		return nil
	default:
		return &StatusError{Code: setresp.StatusCode(), Message: strings.TrimSpace(string(setresp.Body()))}
	}
}
