package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned for names that are empty or attempt traversal.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and rejects names with a ".."
// path segment. Dots inside a segment are kept.
func SanitizeFileName(name string) (string, error) {
	if hasParentSegment(name) {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// SafeName sanitizes name, returning fallback when the name is unusable.
func SafeName(name, fallback string) string {
	s, err := SanitizeFileName(filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")))
	if err != nil || s == "." || s == "_" {
		return fallback
	}
	return s
}

func hasParentSegment(name string) bool {
	segments := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	for _, seg := range segments {
		if strings.TrimSpace(seg) == ".." {
			return true
		}
	}
	return false
}
