package registry

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vk/neodes/internal/token"
)

// VersionField carries the schema version in the file header.
const VersionField = "S10.G00.00.006"

var versionPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-]+$`)

// ErrVersionNotFound is returned when the header does not name a version.
var ErrVersionNotFound = errors.New("schema version (" + VersionField + ") not found in header")

// DetectVersion scans the header lines for VersionField. The scan stops at
// the first declaration line.
func DetectVersion(lines iter.Seq[string]) (string, error) {
	for line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "S20.") {
			break
		}
		tok, err := token.Tokenize(trimmed)
		if err != nil || tok.Field != VersionField || tok.Value == "" {
			continue
		}
		return SanitizeVersion(tok.Value)
	}
	return "", ErrVersionNotFound
}

// SanitizeVersion rejects versions that could escape the schema directory.
func SanitizeVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if !versionPattern.MatchString(v) || strings.Contains(v, "..") {
		return "", fmt.Errorf("invalid schema version %q", version)
	}
	return v, nil
}

// ResolvePath returns the schema resource for version inside dir, named
// norm-<version><ext>.
func ResolvePath(dir, version, ext string) (string, error) {
	v, err := SanitizeVersion(version)
	if err != nil {
		return "", err
	}
	if ext == "" {
		ext = ".yaml"
	}
	return filepath.Join(dir, "norm-"+v+ext), nil
}
