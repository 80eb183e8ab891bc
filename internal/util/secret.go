package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RandomKey returns n random bytes for HMAC signing or CSRF protection.
func RandomKey(n int) ([]byte, error) {
	b, err := generateRandomBytes(n)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return b, nil
}

// RandomString returns an alphanumeric-ish string of the given length.
func RandomString(length int) (string, error) {
	byteLength := (length*3 + 3) / 4
	b, err := generateRandomBytes(byteLength)
	if err != nil {
		return "", err
	}

	str := base64.URLEncoding.EncodeToString(b)
	str = strings.ReplaceAll(str, "-", "")
	str = strings.ReplaceAll(str, "_", "")
	str = strings.TrimRight(str, "=")
	if len(str) > length {
		return str[:length], nil
	}

	return str, nil
}

// KeyOrRandom decodes a configured key, or generates one when none is set.
// The boolean reports whether the key was generated.
func KeyOrRandom(configured string, n int) ([]byte, bool, error) {
	if configured != "" {
		return []byte(configured), false, nil
	}
	key, err := RandomKey(n)
	return key, true, err
}
