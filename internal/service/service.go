package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/ledger/internal/balance"
	"github.com/iurnickita/ledger/internal/deposit"
	"github.com/iurnickita/ledger/internal/model"
	"github.com/iurnickita/ledger/internal/service/config"
	"github.com/iurnickita/ledger/internal/store"
	"github.com/iurnickita/ledger/internal/transfer"
)

type Service interface {
	SubmitTransfer(ctx context.Context, in model.TransferInput) (string, error)
	GetTransfers(ctx context.Context) ([]model.TransferRequest, error)
	Deposit(ctx context.Context, src io.Reader) (string, error)
	DepositFile(ctx context.Context, path string) (string, error)
	RecalculateBalance(ctx context.Context, iban string) (bool, error)
	GetBalance(ctx context.Context, iban string) (model.BalanceEntry, error)
}

type service struct {
	cfg      config.Config
	transfer transfer.Recorder
	deposit  deposit.Processor
	balance  balance.Balance
	zaplog   *zap.Logger
}

// NewService wires the three operations to their collections in store.
// A nil now means the wall clock.
func NewService(cfg config.Config, store store.Store, now func() time.Time, zaplog *zap.Logger) Service {
	if zaplog == nil {
		zaplog = zap.NewNop()
	}
	return &service{
		cfg:      cfg,
		transfer: transfer.NewRecorder(store, cfg.TransfersStore, now),
		deposit:  deposit.NewProcessor(store, cfg.DepositsStore, now),
		balance:  balance.NewBalance(store, cfg.TransactionsStore, cfg.BalancesStore, now),
		zaplog:   zaplog,
	}
}

func (service *service) SubmitTransfer(ctx context.Context, in model.TransferInput) (string, error) {
	code, err := service.transfer.Submit(ctx, in)
	if err != nil {
		service.reject("transfer rejected", err,
			zap.String("from_iban", in.FromIBAN),
			zap.String("to_iban", in.ToIBAN))
		return "", err
	}

	service.zaplog.Info("transfer recorded",
		zap.String("transfer_code", code),
		zap.String("from_iban", in.FromIBAN),
		zap.String("to_iban", in.ToIBAN),
		zap.String("amount", in.Amount))
	return code, nil
}

func (service *service) GetTransfers(ctx context.Context) ([]model.TransferRequest, error) {
	return service.transfer.List(ctx)
}

func (service *service) Deposit(ctx context.Context, src io.Reader) (string, error) {
	signature, err := service.deposit.Deposit(ctx, src)
	if err != nil {
		service.reject("deposit rejected", err)
		return "", err
	}

	service.zaplog.Info("deposit recorded", zap.String("deposit_signature", signature))
	return signature, nil
}

func (service *service) DepositFile(ctx context.Context, path string) (string, error) {
	signature, err := service.deposit.DepositFile(ctx, path)
	if err != nil {
		service.reject("deposit rejected", err, zap.String("path", path))
		return "", err
	}

	service.zaplog.Info("deposit recorded",
		zap.String("deposit_signature", signature),
		zap.String("path", path))
	return signature, nil
}

func (service *service) RecalculateBalance(ctx context.Context, iban string) (bool, error) {
	ok, err := service.balance.Recalculate(ctx, iban)
	if err != nil {
		service.reject("balance recalculation failed", err, zap.String("iban", iban))
		return false, err
	}

	service.zaplog.Info("balance recalculated", zap.String("iban", iban))
	return ok, nil
}

func (service *service) GetBalance(ctx context.Context, iban string) (model.BalanceEntry, error) {
	return service.balance.Get(ctx, iban)
}

// reject logs a refused operation. Business rule violations are expected
// and logged at info level, anything else is an error.
func (service *service) reject(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if model.KindOf(err) == model.KindUnknown {
		service.zaplog.Error(msg, fields...)
		return
	}
	service.zaplog.Info(msg, fields...)
}
