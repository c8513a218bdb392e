package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Outcome is the terminal verdict of a download run.
type Outcome int

const (
	// OutcomeMatch means the computed digest equals the expected one.
	OutcomeMatch Outcome = iota
	// OutcomeMismatch means the digests differ.
	OutcomeMismatch
	// OutcomeComputed means no expected digest was provided; the computed
	// value is surfaced to the caller instead of compared.
	OutcomeComputed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeComputed:
		return "computed"
	}
	return "unknown"
}

// ComputeDigest returns the lowercase hex SHA-256 of data.
func ComputeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CompareDigest compares a computed digest against an expected one. An empty
// expected digest means none was provided. Comparison is byte-for-byte after
// normalizing the expected value's hex casing.
func CompareDigest(computed string, expected string) Outcome {
	if expected == "" {
		return OutcomeComputed
	}
	if computed == strings.ToLower(expected) {
		return OutcomeMatch
	}
	return OutcomeMismatch
}
