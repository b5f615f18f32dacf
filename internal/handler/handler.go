package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/ledger/internal/auth"
	"github.com/iurnickita/ledger/internal/handler/config"
	"github.com/iurnickita/ledger/internal/logger"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/service"
)

func Serve(cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	zaplog.Info("ledger server started", zap.String("addr", cfg.ServerAddr))
	return srv.ListenAndServe()
}

// NewRouter returns the API routes without starting a server.
func NewRouter(auth auth.Auth, service service.Service, zaplog *zap.Logger) http.Handler {
	return newHandler(auth, service, zaplog).newRouter()
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	if zaplog == nil {
		zaplog = zap.NewNop()
	}
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transfers", limitBody(logger.RequestLogMdlw(h.auth.Middleware(h.PostTransfer), h.zaplog)))
	mux.HandleFunc("GET /api/transfers", limitBody(logger.RequestLogMdlw(h.auth.Middleware(h.GetTransfers), h.zaplog)))
	mux.HandleFunc("POST /api/deposits", limitBody(logger.RequestLogMdlw(h.auth.Middleware(h.PostDeposit), h.zaplog)))
	mux.HandleFunc("POST /api/balances/{iban}", limitBody(logger.RequestLogMdlw(h.auth.Middleware(h.PostBalance), h.zaplog)))
	mux.HandleFunc("GET /api/balances/{iban}", limitBody(logger.RequestLogMdlw(h.auth.Middleware(h.GetBalance), h.zaplog)))

	return mux
}

func limitBody(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		h(w, r)
	}
}

// PostTransferJSONRequest accepts the amount either as a JSON string or as a number.
type PostTransferJSONRequest struct {
	FromIBAN     string          `json:"from_iban"`
	ToIBAN       string          `json:"to_iban"`
	Concept      string          `json:"concept"`
	TransferType string          `json:"transfer_type"`
	Date         string          `json:"date"`
	Amount       json.RawMessage `json:"amount"`
}

type PostTransferJSONResponse struct {
	TransferCode string `json:"transfer_code"`
}

func (h *handler) PostTransfer(w http.ResponseWriter, r *http.Request) {
	var request PostTransferJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, err)
			return
		}
		h.writeError(w, model.ErrInvalidJSON)
		return
	}

	code, err := h.service.SubmitTransfer(r.Context(), model.TransferInput{
		FromIBAN:     request.FromIBAN,
		ToIBAN:       request.ToIBAN,
		Concept:      request.Concept,
		TransferType: request.TransferType,
		Date:         request.Date,
		Amount:       rawAmount(request.Amount),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, PostTransferJSONResponse{TransferCode: code})
}

func (h *handler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.service.GetTransfers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(transfers) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, transfers)
}

type PostDepositJSONResponse struct {
	DepositSignature string `json:"deposit_signature"`
}

func (h *handler) PostDeposit(w http.ResponseWriter, r *http.Request) {
	signature, err := h.service.Deposit(r.Context(), r.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, PostDepositJSONResponse{DepositSignature: signature})
}

type PostBalanceJSONResponse struct {
	IBAN         string `json:"iban"`
	Recalculated bool   `json:"recalculated"`
}

func (h *handler) PostBalance(w http.ResponseWriter, r *http.Request) {
	iban := r.PathValue("iban")

	ok, err := h.service.RecalculateBalance(r.Context(), iban)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, PostBalanceJSONResponse{IBAN: iban, Recalculated: ok})
}

func (h *handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetBalance(r.Context(), r.PathValue("iban"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

// rawAmount returns the amount text as sent: a JSON string is unquoted,
// a number is kept verbatim.
func rawAmount(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// StatusOf maps a ledger error to the HTTP status returned for it.
func StatusOf(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	// поврежденный файл с транзакциями - проблема сервера, а не запроса
	if errors.Is(err, model.ErrReadingSource) {
		return http.StatusInternalServerError
	}

	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindMalformed:
		return http.StatusBadRequest
	case model.KindIntegrity:
		return http.StatusConflict
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindIO:
		if errors.Is(err, model.ErrSourceNotFound) || errors.Is(err, model.ErrInputNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusOf(err))
}

func (h *handler) writeJSON(w http.ResponseWriter, code int, v any) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(responseJSON)
}
