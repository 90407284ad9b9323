// Package qb renders the SQL fragments the access helper executes: identifier and literal quoting,
// placeholder scanning, rebinding and expansion, LIMIT clauses and insert/update/delete/upsert
// statements.
//
// The zero Builder and Default() target MySQL. Use New(...) or FromDB(...) for sqlite and postgres.
package qb
