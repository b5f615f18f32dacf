package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iurnickita/ledger/internal/client"
	"github.com/iurnickita/ledger/internal/model"
)

const usage = `usage: ledgerctl [-a addr] [-t token] <command> [args]

commands:
  transfer  -from IBAN -to IBAN -concept TEXT -type TYPE -date D/M/YYYY -amount N
  transfers
  deposit   -f FILE | -iban IBAN -amount "EUR N"
  recalc    IBAN
  balance   IBAN
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	// .env is optional
	_ = godotenv.Load()

	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	addr := fs.String("a", envOr("LEDGER_ADDRESS", "localhost:8080"), "ledger server address")
	token := fs.String("t", os.Getenv("LEDGER_TOKEN"), "operator token")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.NewClient(*addr, *token)
	command, rest := fs.Arg(0), fs.Args()[1:]

	var (
		result any
		err    error
	)
	switch command {
	case "transfer":
		result, err = transfer(ctx, c, rest)
	case "transfers":
		result, err = c.ListTransfers(ctx)
	case "deposit":
		result, err = deposit(ctx, c, rest)
	case "recalc":
		var iban string
		if iban, err = single(rest); err == nil {
			result, err = c.RecalculateBalance(ctx, iban)
		}
	case "balance":
		var iban string
		if iban, err = single(rest); err == nil {
			result, err = c.GetBalance(ctx, iban)
		}
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(result)
}

func transfer(ctx context.Context, c client.Client, args []string) (string, error) {
	var in model.TransferInput
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.StringVar(&in.FromIBAN, "from", "", "source IBAN")
	fs.StringVar(&in.ToIBAN, "to", "", "destination IBAN")
	fs.StringVar(&in.Concept, "concept", "", "transfer concept")
	fs.StringVar(&in.TransferType, "type", string(model.TransferTypeOrdinary), "ORDINARY, URGENT or IMMEDIATE")
	fs.StringVar(&in.Date, "date", "", "execution date D/M/YYYY")
	fs.StringVar(&in.Amount, "amount", "", "amount in euros")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return c.SubmitTransfer(ctx, in)
}

func deposit(ctx context.Context, c client.Client, args []string) (string, error) {
	var in model.DepositInput
	fs := flag.NewFlagSet("deposit", flag.ContinueOnError)
	path := fs.String("f", "", "file with the deposit payload")
	fs.StringVar(&in.IBAN, "iban", "", "account IBAN")
	fs.StringVar(&in.Amount, "amount", "", `amount, e.g. "EUR 100.00"`)
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	if *path == "" {
		return c.Deposit(ctx, in)
	}
	payload, err := os.ReadFile(*path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", model.ErrInputNotFound
		}
		return "", errors.Join(model.ErrReadingInput, err)
	}
	return c.DepositPayload(ctx, payload)
}

func single(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected exactly one IBAN")
	}
	return args[0], nil
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}
