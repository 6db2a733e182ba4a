package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateNumericCode returns a uniformly random decimal string of exactly n digits.
// Leading zeros are kept, so "004211" is a valid 6-digit code.
func GenerateNumericCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}
	var sb strings.Builder
	sb.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

// GenerateReceiptID returns a short gateway receipt reference: rcpt_xxxxxxxx
func GenerateReceiptID() string {
	return "rcpt_" + uuid.New().String()[:8]
}

// GenerateCartToken returns an opaque token identifying an anonymous cart.
func GenerateCartToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// SanitizeFileName lowercases name, strips any directory part and replaces
// everything outside [a-z0-9._-] with '-'.
func SanitizeFileName(name string) string {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "image"
	}
	if len(base) > 80 {
		base = base[len(base)-80:]
	}
	return base
}

// UploadObjectName builds a collision-resistant object name:
// <unix millis>-<6 random hex>-<sanitized original name>.
func UploadObjectName(now time.Time, original string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), hex.EncodeToString(b), SanitizeFileName(original)), nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with '-'.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
