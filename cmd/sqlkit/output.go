package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sllt/sqlkit/pkg/sqlkit/dbext"
)

var errBadAssignment = errors.New("assignments must look like column=value")

// writeRows prints one JSON object per row.
func writeRows(w io.Writer, rs *dbext.ResultSet) error {
	enc := json.NewEncoder(w)

	for _, row := range rs.Records() {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}

	return nil
}

func writeAffected(w io.Writer, n int64) error {
	return json.NewEncoder(w).Encode(map[string]int64{"affected": n})
}

// parseAssignments turns column=value pairs into upsert data. The literal NULL binds nil.
func parseAssignments(pairs []string) (map[string]any, error) {
	data := make(map[string]any, len(pairs))

	for _, p := range pairs {
		col, value, ok := strings.Cut(p, "=")

		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("%w: %q", errBadAssignment, p)
		}

		if value == "NULL" {
			data[col] = nil
			continue
		}

		data[col] = value
	}

	return data, nil
}

func toParams(values []string) []any {
	params := make([]any, len(values))
	for i, v := range values {
		params[i] = v
	}

	return params
}
