package session

import "crypto/rand"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// Largest multiple of len(codeAlphabet) that fits in a byte.
	// Bytes at or above it are rejected so every alphabet character
	// is drawn with equal probability.
	codeByteLimit = 256 - 256%len(codeAlphabet)
)

// newCode generates a short human-shareable session code. Collisions
// are possible and handled by the caller with a regenerate loop.
func newCode() (string, error) {
	code := make([]byte, 0, codeLength)
	buf := make([]byte, 16)

	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if int(b) >= codeByteLimit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}

	return string(code), nil
}
