package shortener

import (
	"crypto/md5" //nolint:gosec // content hash for code derivation, not a security boundary
	"encoding/hex"
	"strconv"
	"time"
)

const (
	// DefaultCodePrefix is prepended to every generated code.
	DefaultCodePrefix = "lleria"
	// CodeHashLength is the number of hex characters taken from the digest.
	CodeHashLength = 8
)

// CodeGenerator derives candidate codes from a normalized URL.
type CodeGenerator struct {
	prefix string
}

// NewCodeGenerator creates a code generator that prefixes codes with prefix.
func NewCodeGenerator(prefix string) *CodeGenerator {
	return &CodeGenerator{prefix: prefix}
}

// Generate returns the candidate code for the given attempt. The same URL, attempt and
// second always produce the same code, so the attempt counter is part of the digest.
func (g *CodeGenerator) Generate(normalizedURL string, attempt int, at time.Time) Code {
	input := normalizedURL + "-" + strconv.Itoa(attempt) + strconv.FormatInt(at.Unix(), 10)
	sum := md5.Sum([]byte(input)) //nolint:gosec

	return Code(g.prefix + hex.EncodeToString(sum[:])[:CodeHashLength])
}

// Prefix returns the configured code prefix.
func (g *CodeGenerator) Prefix() string {
	return g.prefix
}
