// Package migrations ships the SQL schema and applies it at startup.
package migrations

import "embed"

// PostgresFS embeds the postgres schema files, applied in lexical order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the clickhouse schema files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
