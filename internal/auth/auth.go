package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iurnickita/ledger/internal/auth/config"
	"github.com/iurnickita/ledger/internal/token"
)

type Auth interface {
	IssueToken(operator string) (string, error)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	HeaderOperatorKey = "X-Ledger-Operator"
	cookieToken       = "ledgerToken"
)

var ErrNoToken = errors.New("no token")

type auth struct {
	cfg config.Config
}

func NewAuth(cfg config.Config) Auth {
	return &auth{cfg: cfg}
}

func (a *auth) IssueToken(operator string) (string, error) {
	return token.BuildJWTString(a.cfg.Secret, operator, a.cfg.TokenTTL)
}

// Middleware rejects requests without a valid token. Without a configured
// secret every request passes.
func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Secret == "" {
			h.ServeHTTP(w, r)
			return
		}

		// получение оператора
		operator, err := a.getOperator(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		// записываем
		r.Header.Set(HeaderOperatorKey, operator)

		// передаём управление хендлеру
		h.ServeHTTP(w, r)
	}
}

func (a *auth) getOperator(r *http.Request) (string, error) {
	var tokenString string
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	} else if tokenCookie, err := r.Cookie(cookieToken); err == nil {
		tokenString = tokenCookie.Value
	}
	if tokenString == "" {
		return "", ErrNoToken
	}

	return token.GetOperator(a.cfg.Secret, tokenString)
}
