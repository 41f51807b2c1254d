package secret

import (
	"github.com/mcoot/bullscows/internal/dependencies/random"
	"github.com/mcoot/bullscows/internal/model"
)

const digits = "0123456789"

// Generator produces secrets and scores guesses against them
type Generator struct {
	random random.Random
}

// New creates a new Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns a secret of distinct digits, uniform over all
// 10*9*8*7 possibilities. Digits are drawn without replacement.
func (g *Generator) Generate() string {
	pool := []byte(digits)
	result := make([]byte, model.SecretLength)
	for i := range result {
		j := g.random.Intn(len(pool))
		result[i] = pool[j]
		pool = append(pool[:j], pool[j+1:]...)
	}
	return string(result)
}

// Score compares a guess against the secret. Both must already be valid.
// exact counts matching positions; partial counts guess digits that occur
// in the secret at a different position.
func Score(secret, guess string) (exact, partial int) {
	for i := 0; i < len(guess) && i < len(secret); i++ {
		switch {
		case guess[i] == secret[i]:
			exact++
		case containsByte(secret, guess[i]):
			partial++
		}
	}
	return exact, partial
}

// ValidateGuess returns ErrInvalidFormat unless text is exactly four
// distinct ASCII digits
func ValidateGuess(text string) error {
	if len(text) != model.SecretLength {
		return model.ErrInvalidFormat
	}
	var seen [10]bool
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' || seen[c-'0'] {
			return model.ErrInvalidFormat
		}
		seen[c-'0'] = true
	}
	return nil
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
