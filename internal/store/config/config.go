package config

type Config struct {
	// Postgres connection string. Stores are kept as files in Dir when empty.
	DBDsn string
	Dir   string
}
