package config

// Config names the collections each operation works on.
type Config struct {
	TransfersStore    string
	DepositsStore     string
	TransactionsStore string
	BalancesStore     string
}
