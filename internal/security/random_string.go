package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// temporaryPasswordAlphabet skips look-alike characters (0/O, 1/l/I).
const temporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const minTemporaryPasswordLength = 8

var (
	errNegativeLength  = errors.New("length must be non-negative")
	errEmptyAlphabet   = errors.New("alphabet must not be empty")
	errPasswordRetries = errors.New("could not generate a mixed-class password")
)

// RandomString returns a uniformly distributed string drawn from alphabet
// using crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", errNegativeLength
	case length == 0:
		return "", nil
	case alphabet == "":
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	var builder strings.Builder
	builder.Grow(length)
	for builder.Len() < length {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[position.Int64()])
	}
	return builder.String(), nil
}

// TemporaryPassword returns a one-time password containing an upper-case
// letter, a lower-case letter and a digit, so it passes the login password policy.
func TemporaryPassword(length int) (string, error) {
	length = max(length, minTemporaryPasswordLength)
	for range 32 {
		candidate, err := RandomString(length, temporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if hasMixedClasses(candidate) {
			return candidate, nil
		}
	}
	return "", errPasswordRetries
}

func hasMixedClasses(value string) bool {
	return strings.ContainsAny(value, "ABCDEFGHJKLMNPQRSTUVWXYZ") &&
		strings.ContainsAny(value, "abcdefghijkmnopqrstuvwxyz") &&
		strings.ContainsAny(value, "23456789")
}
