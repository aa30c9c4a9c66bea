package migrations

import "embed"

// FS contains embedded SQLite migrations for the fulfillment ledger.
//
//go:embed *.sql
var FS embed.FS
