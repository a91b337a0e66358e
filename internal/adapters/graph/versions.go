package graph

import (
	"os"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// canonical converts a bare version such as 1.2.0 into the v-prefixed form
// understood by golang.org/x/mod/semver.
func canonical(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// lowestVersion picks the lowest version directory under dir that is at least
// minVersion. Directories that are not valid versions are ignored.
func lowestVersion(dir, minVersion string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, "failed to list package versions"), "dir", dir)
	}

	var (
		best  string
		found bool
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version := entry.Name()
		if !semver.IsValid(canonical(version)) {
			continue
		}
		if minVersion != "" && semver.Compare(canonical(version), canonical(minVersion)) < 0 {
			continue
		}
		if !found || semver.Compare(canonical(version), canonical(best)) < 0 {
			best, found = version, true
		}
	}
	return best, found, nil
}
