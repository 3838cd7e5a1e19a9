package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		code := generateCode()
		assert.Len(t, code, 4)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c),
				"code %q contains %q outside the alphabet", code, c)
		}
		seen[code] = true
	}
	// 32^4 possible codes; 500 draws colliding down to a handful would
	// mean the generator is broken.
	assert.Greater(t, len(seen), 450)
}
