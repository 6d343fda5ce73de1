package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// DefaultPath is the report database opened by a bare "sqlite://".
const DefaultPath = "animoverride-report.db"

// parseDSN turns sqlite://<path>[?options] into a driver file name. Relative
// paths are made explicit so the driver never treats them as URIs.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", fmt.Errorf("report database %q: expected sqlite:// scheme", dsn)
	}
	path, options, _ := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("report database path %q: %w", rest, err)
	}

	switch {
	case path == ":memory:":
	case path == "":
		path = "./" + DefaultPath
	case filepath.IsAbs(path), strings.HasPrefix(path, "./"), strings.HasPrefix(path, "../"):
	default:
		path = "./" + path
	}
	if options != "" {
		path += "?" + options
	}
	return path, nil
}
