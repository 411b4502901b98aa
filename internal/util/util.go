package util

import (
	"path"
	"path/filepath"
	"strings"
)

// ComputeBaseHref calculates the relative path from a page back to the output
// root, so that stylesheet and script links in a template work at any depth.
// For example, a page at docs/a/b.html gets "../../".
func ComputeBaseHref(relPath string) string {
	dir := path.Dir(filepath.ToSlash(relPath))
	if dir == "." || dir == "/" {
		return ""
	}
	depth := strings.Count(strings.Trim(dir, "/"), "/") + 1
	return strings.Repeat("../", depth)
}

// SlashRel returns target relative to base using forward slashes.
func SlashRel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
