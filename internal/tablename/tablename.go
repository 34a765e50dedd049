// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tablename extracts the researcher table reference from query text.
// Queries must reference tables through a fixed schema prefix (e.g.
// "puf.puf_demo"); the first such reference names the table the request
// operates on. This textual coupling is part of the external contract with
// the API that produces the queries.
package tablename

import (
	"fmt"
	"regexp"
	"strings"
)

// Extract returns the first schema-prefixed table reference in the query.
// The prefix is matched literally, e.g. "puf.puf_" matches "puf.puf_demo".
func Extract(query, prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		return "", fmt.Errorf("schema prefix is not configured")
	}
	re, err := regexp.Compile(regexp.QuoteMeta(prefix) + `\S+`)
	if err != nil {
		return "", fmt.Errorf("invalid schema prefix %q: %w", prefix, err)
	}
	match := re.FindString(query)
	if match == "" {
		return "", fmt.Errorf("query does not reference a %s* table", prefix)
	}
	// Trailing punctuation from the query text is not part of the name.
	match = strings.TrimRight(match, ";,)")
	return match, nil
}

// Split separates a qualified table reference into schema and table.
// An unqualified name defaults to the public schema.
func Split(qualified string) (schema string, table string) {
	parts := strings.SplitN(qualified, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "public", qualified
}
