package project

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// binaryExtensions are never served as text.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true, ".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
	".eot": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".so": true, ".dll": true, ".exe": true, ".class": true, ".jar": true,
	".bin": true,
}

// ErrNotText is returned for missing files and files that fail the
// binary sniff.
var ErrNotText = errors.New("file not found or binary")

// ReadTextFile reads the file at relPath under root if it is text.
// Returns the content and a content type. Binary files (by extension,
// NUL byte, or invalid UTF-8) and missing files return ErrNotText.
func ReadTextFile(root, relPath string) (string, string, error) {
	full, err := Resolve(root, relPath)
	if err != nil {
		return "", "", ErrNotText
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", "", ErrNotText
	}

	ext := strings.ToLower(filepath.Ext(full))
	if binaryExtensions[ext] {
		return "", "", ErrNotText
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return "", "", ErrNotText
	}
	if bytes.IndexByte(raw, 0) >= 0 || !utf8.Valid(raw) {
		return "", "", ErrNotText
	}

	contentType := "text/plain; charset=utf-8"
	if ext == ".json" {
		contentType = "application/json"
	}
	return string(raw), contentType, nil
}
