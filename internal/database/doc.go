// Package database provides pgxpool connection setup for the
// client/server Postgres trade store backend.
package database
