package migrations

import "embed"

// PostgresFS holds the relational schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the timeseries schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
