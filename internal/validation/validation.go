// Package validation provides input validation utilities.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input validation patterns.
var (
	// packageNamePattern follows Debian package naming: lowercase
	// alphanumerics, plus, minus, and dots, starting with an alphanumeric.
	packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]*$`)

	// identifierPattern for database role and database names.
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// unitNamePattern for systemd unit names.
	unitNamePattern = regexp.MustCompile(`^[a-zA-Z0-9:_.@\\-]+$`)

	// Dangerous characters that should never appear in values handed to a
	// shell-adjacent command.
	dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}
)

// ValidatePackageName validates an apt package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}
	if strings.ContainsRune(name, '\x00') {
		return fmt.Errorf("package name contains null byte")
	}
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("package name contains invalid character: %q", char)
		}
	}
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid package name format: must be lowercase alphanumerics, '+', '-', or '.'")
	}
	return nil
}

// ValidatePath validates an absolute filesystem path used as a step target.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path contains null byte")
	}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains invalid character: %q", char)
		}
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must be absolute")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path cannot contain '..'")
	}
	return nil
}

// ValidatePort validates a TCP/UDP port number.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ValidateURL validates a download URL. Only http and https are accepted.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if len(raw) > 2048 {
		return fmt.Errorf("URL too long (max 2048 characters)")
	}
	if strings.ContainsRune(raw, '\x00') {
		return fmt.Errorf("URL contains null byte")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q: must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateIdentifier validates a database role or database name.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 characters)")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier format: must start with a letter or underscore, followed by alphanumerics or underscores")
	}
	return nil
}

// ValidateUnitName validates a systemd unit name.
func ValidateUnitName(name string) error {
	if name == "" {
		return fmt.Errorf("unit name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("unit name too long (max 255 characters)")
	}
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("unit name contains invalid character: %q", char)
		}
	}
	if !unitNamePattern.MatchString(name) {
		return fmt.Errorf("invalid unit name format")
	}
	return nil
}
