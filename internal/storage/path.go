package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildResultObjectPath returns the archive key for one invocation's
// result set, partitioned by the UTC date the invocation completed.
func BuildResultObjectPath(invocationID string, completedAt time.Time) (string, error) {
	if err := validatePathComponent(invocationID, "invocation id"); err != nil {
		return "", err
	}

	ts := completedAt.UTC()
	return path.Join(
		"results",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s.parquet", invocationID),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
