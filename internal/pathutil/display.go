// Package pathutil shortens file paths for messages shown to clients.
package pathutil

import (
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename>.
// For example, "/home/user/results/L0N20_pythia70m_ckpt_series.jsonl"
// becomes ".../results/L0N20_pythia70m_ckpt_series.jsonl".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// DisplayPath returns path relative to root when it lies under root,
// using forward slashes, and RedactPath(path) otherwise.
func DisplayPath(root, path string) string {
	if path == "" {
		return ""
	}
	if root != "" {
		absRoot, err1 := filepath.Abs(root)
		absPath, err2 := filepath.Abs(path)
		if err1 == nil && err2 == nil {
			if rel, err := filepath.Rel(absRoot, absPath); err == nil && rel != ".." &&
				!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return filepath.ToSlash(rel)
			}
		}
	}
	return RedactPath(path)
}
