// Package patientcode builds the human-readable codes assigned to new patients,
// e.g. "APC-RS-0042-7QK": clinic initials, doctor initials, the clinic/doctor
// sequence and three random characters.
package patientcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/intake/internal/platform/sequence"
)

const (
	clinicShortLen = 3
	doctorShortLen = 2
	randomSuffix   = 3

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	codePattern  = regexp.MustCompile(`^[A-Z0-9]{2,4}-[A-Z0-9]{2}-\d{4}-[A-Z0-9]{3}$`)
	nonAlnumOrWS = regexp.MustCompile(`[^A-Za-z0-9\s]`)
)

// Validate reports whether code has the patient code shape.
func Validate(code string) bool {
	return codePattern.MatchString(code)
}

type Generator struct {
	alloc  sequence.Allocator
	random io.Reader
}

func NewGenerator(alloc sequence.Allocator) *Generator {
	return &Generator{alloc: alloc, random: rand.Reader}
}

// NewGeneratorWithRandom uses r instead of crypto/rand for the random parts.
func NewGeneratorWithRandom(alloc sequence.Allocator, r io.Reader) *Generator {
	return &Generator{alloc: alloc, random: r}
}

// Generate allocates the next sequence for the clinic/doctor pair and composes
// a new code. The random suffix is not needed for uniqueness; the store's
// unique constraint on codes remains the final guard.
func (g *Generator) Generate(ctx context.Context, clinicID, doctorID uuid.UUID, clinicName, doctorName string) (string, error) {
	clinic, err := g.ShortCode(clinicName, clinicShortLen)
	if err != nil {
		return "", err
	}
	doctor, err := g.ShortCode(doctorName, doctorShortLen)
	if err != nil {
		return "", err
	}

	seq, err := g.alloc.Allocate(ctx, sequence.Key(clinicID, doctorID))
	if err != nil {
		return "", fmt.Errorf("generate patient code: %w", err)
	}

	suffix, err := g.randomString(randomSuffix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%04d-%s", clinic, doctor, seq, suffix), nil
}

// ShortCode condenses name to at most length uppercase alphanumerics: the
// leading characters of a single word, or the initials of several. An empty
// name yields length random characters.
func (g *Generator) ShortCode(name string, length int) (string, error) {
	tokens := strings.Fields(strings.ToUpper(nonAlnumOrWS.ReplaceAllString(name, "")))

	switch len(tokens) {
	case 0:
		return g.randomString(length)
	case 1:
		return truncate(tokens[0], length), nil
	default:
		var initials strings.Builder
		for _, tok := range tokens {
			initials.WriteByte(tok[0])
		}
		return truncate(initials.String(), length), nil
	}
}

func (g *Generator) randomString(n int) (string, error) {
	out := make([]byte, n)
	base := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(g.random, base)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
