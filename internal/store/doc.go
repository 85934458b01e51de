// Package store implements the trade store's capability interface and
// its three interchangeable backends: in-memory ring buffer, embedded
// single-file SQL (modernc.org/sqlite), and client/server SQL
// (jackc/pgx/v5 against Postgres). All three expose the same query
// methods; one difference is RecentTrades with a non-positive limit,
// which returns every held trade in memory and at most 1000 rows from
// the SQL backends. The coordinator selects one at startup from
// configuration.
package store
