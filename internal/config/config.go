package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	authConfig "github.com/iurnickita/ledger/internal/auth/config"
	handlerConfig "github.com/iurnickita/ledger/internal/handler/config"
	loggerConfig "github.com/iurnickita/ledger/internal/logger/config"
	serviceConfig "github.com/iurnickita/ledger/internal/service/config"
	storeConfig "github.com/iurnickita/ledger/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Service serviceConfig.Config
	Store   storeConfig.Config
	Logger  loggerConfig.Config
	Auth    authConfig.Config

	// IssueTokenFor, when set, asks the server binary to print a token for
	// this operator and exit.
	IssueTokenFor string
}

const (
	defaultServerAddr = "localhost:8080"
	defaultStoreDir   = "JsonFiles"
	defaultLogLevel   = "info"
	defaultTokenTTL   = 24 * time.Hour
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Handler: handlerConfig.Config{ServerAddr: defaultServerAddr},
		Service: serviceConfig.Config{
			TransfersStore:    "transactions.json",
			DepositsStore:     "deposits.json",
			TransactionsStore: "transactions2.json",
			BalancesStore:     "saldos.json",
		},
		Store:  storeConfig.Config{Dir: defaultStoreDir},
		Logger: loggerConfig.Config{LogLevel: defaultLogLevel},
		Auth:   authConfig.Config{TokenTTL: defaultTokenTTL},
	}
}

// GetConfig reads the configuration from the command line. Environment
// variables, including those from a .env file, take precedence over flags.
func GetConfig() Config {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg.bindFlags(fs)
	fs.Parse(os.Args[1:])
	cfg.applyEnv(os.LookupEnv)

	return cfg
}

func (cfg *Config) bindFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Handler.ServerAddr, "a", cfg.Handler.ServerAddr, "server address host:port")
	fs.StringVar(&cfg.Store.DBDsn, "d", cfg.Store.DBDsn, "database connection string")
	fs.StringVar(&cfg.Store.Dir, "s", cfg.Store.Dir, "store directory")
	fs.StringVar(&cfg.Logger.LogLevel, "l", cfg.Logger.LogLevel, "log level")
	fs.StringVar(&cfg.Auth.Secret, "k", cfg.Auth.Secret, "token signing secret")
	fs.DurationVar(&cfg.Auth.TokenTTL, "ttl", cfg.Auth.TokenTTL, "token lifetime")
	fs.StringVar(&cfg.IssueTokenFor, "token", "", "print a token for this operator and exit")
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) {
	vars := map[string]*string{
		"RUN_ADDRESS":        &cfg.Handler.ServerAddr,
		"DATABASE_URI":       &cfg.Store.DBDsn,
		"STORE_DIR":          &cfg.Store.Dir,
		"LOG_LEVEL":          &cfg.Logger.LogLevel,
		"AUTH_SECRET":        &cfg.Auth.Secret,
		"TRANSFERS_STORE":    &cfg.Service.TransfersStore,
		"DEPOSITS_STORE":     &cfg.Service.DepositsStore,
		"TRANSACTIONS_STORE": &cfg.Service.TransactionsStore,
		"BALANCES_STORE":     &cfg.Service.BalancesStore,
	}
	for name, field := range vars {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}
	if v, ok := lookup("TOKEN_TTL"); ok {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = ttl
		}
	}
}
