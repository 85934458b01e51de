package store

// tradeColumns lists every column of the whale_flows table in the
// order the Trade struct's fields are read/written across both SQL
// backends.
var tradeColumns = []string{
	"timestamp", "platform", "market", "market_label", "size_usd",
	"side", "actor_address", "price", "quantity", "trade_id",
	"market_is_niche", "market_is_stock", "market_volume",
	"cluster_id", "market_category",
}

// evolvingColumns is the subset of tradeColumns that were added after
// the table's original creation and must be backfilled via ALTER
// TABLE ADD COLUMN on an existing database.
var evolvingColumns = map[string]string{
	"market_label":    "TEXT",
	"market_is_niche": "INTEGER",
	"market_is_stock": "INTEGER",
	"market_volume":   "REAL",
	"cluster_id":      "TEXT",
	"market_category": "TEXT",
}
