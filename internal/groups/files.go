package groups

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize is the largest file accepted for a group (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// SupportedExtensions lists accepted document extensions.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".md", ".rtf", ".tex", ".bib"}

var (
	ErrFileTooLarge    = errors.New("file size exceeds the maximum allowed limit (25MB)")
	ErrUnsupportedFile = errors.New("file format not supported; upload PDF, DOCX, TXT, MD, RTF, TEX, or BIB files")
)

// ValidateFile checks size and type. The MIME type is a fallback for names
// without a recognised extension.
func ValidateFile(name, mimeType string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%s: %w", name, ErrFileTooLarge)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if slices.Contains(SupportedExtensions, ext) {
		return nil
	}
	for _, hint := range []string{"pdf", "docx", "text"} {
		if strings.Contains(mimeType, hint) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", name, ErrUnsupportedFile)
}
