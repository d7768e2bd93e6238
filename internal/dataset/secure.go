package dataset

import (
	"path"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SecureFilename reduces an uploaded filename to a safe token: base name
// only, whitespace folded to '_', anything outside [A-Za-z0-9._-] dropped.
// An empty result becomes "dataset".
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return "dataset"
	}
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "dataset"
	}
	return name
}
