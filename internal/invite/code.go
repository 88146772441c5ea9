package invite

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CodeLength is the number of characters in a family invite code
const CodeLength = 6

// codeAlphabet excludes the ambiguous characters 0, O, 1 and I so
// codes survive being read aloud or copied by hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode generates a random 6-character invite code. Each call
// returns a fresh code; uniqueness against stored codes is the
// caller's responsibility.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := 0; i < CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}

// NormalizeCode cleans up a user-entered code so "ab-12-cd" and
// "AB12CD" compare equal: uppercase, whitespace and hyphens stripped.
func NormalizeCode(code string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	return cleaned
}
