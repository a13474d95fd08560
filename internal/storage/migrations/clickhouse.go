package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// chExecutor is the slice of the ClickHouse connection API the runner
// needs.
type chExecutor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunClickhouseMigrations applies the embedded SQL files in lexical
// order against an open connection.
func RunClickhouseMigrations(ctx context.Context, db chExecutor) error {
	files, err := fs.Glob(ClickhouseFS, "clickhouse/*.sql")
	if err != nil {
		return fmt.Errorf("list embedded clickhouse migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(ClickhouseFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		// The driver can't run multiquery statements in one Exec, so
		// each statement runs individually. The splitter is line based
		// and requires migrations to keep semicolons out of string
		// literals and to use -- comments only.
		for _, stmt := range splitStatements(string(data)) {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}

	return nil
}

// splitStatements splits SQL content into individual statements by semicolon,
// dropping blank lines and -- comments first.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}
	joined := strings.Join(filtered, "\n")

	var stmts []string
	for _, part := range strings.Split(joined, ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
