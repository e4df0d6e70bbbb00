package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// Package names are used to build directory paths inside a registry checkout,
// so anything that could escape the letter bucket is rejected:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

var (
	monthLabelRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)
	dayLabelRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidatePeriodLabel validates a time-bucket label ("2019-05" or "2019-05-17").
func ValidatePeriodLabel(label string) error {
	if monthLabelRegex.MatchString(label) || dayLabelRegex.MatchString(label) {
		return nil
	}
	return New(ErrCodeInvalidLabel, "invalid period label: %q (want YYYY-MM or YYYY-MM-DD)", label)
}

// documentNameRegex matches stored document names such as
// "dependencies_2019-05.json" or "metadata_dependencies_1a2b3c4d.json".
var documentNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateDocumentName validates the name of a stored snapshot document.
// Names are flat: no directories, no traversal, no hidden files.
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "document name cannot be empty")
	}
	if len(name) > 200 {
		return New(ErrCodeInvalidPath, "document name too long (max 200 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "document name cannot contain path traversal sequences (..)")
	}
	if !documentNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPath, "invalid document name: %q", name)
	}
	return nil
}
