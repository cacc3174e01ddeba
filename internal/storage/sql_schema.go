package storage

import (
	"fmt"
	"regexp"
)

// identifierRegex matches table names safe to splice into DDL and queries,
// since identifiers cannot be bound as parameters.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateTableName(name string) error {
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
