// Package id generates the short human-readable codes printed on discount
// tokens. Codes are opaque to the engine; only uniqueness matters.
package id

import (
	"github.com/jaevor/go-nanoid"
)

// Ambiguous characters (0/O, 1/I/L) are excluded so codes survive being
// read over the phone at the point of sale.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const codeLength = 8

// CodeGenerator produces unique token codes.
type CodeGenerator func() string

// NewCodeGenerator builds the nanoid-backed code generator.
func NewCodeGenerator() (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, codeLength)
	if err != nil {
		return nil, err
	}
	return CodeGenerator(gen), nil
}
