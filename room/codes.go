package room

import "crypto/rand"

// Codes avoid visually ambiguous characters (I, O, 0, 1).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 4
)

// generateCode returns a random 4-character room code. The alphabet has
// 32 characters, so a byte modulo carries no bias.
func generateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}

	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}
