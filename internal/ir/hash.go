package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchema  = "framesynth/schema/v1"
	DomainProgram = "framesynth/program/v1"
	DomainToken   = "framesynth/token/v1"
)

// RootTokenPrefix is the naming convention of plugin-generated root markers.
const RootTokenPrefix = "Token"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash computes the content fingerprint of a schema.
// Two schemas with the same shape, names and types hash identically.
func SchemaHash(s Schema) (string, error) {
	canonical, err := MarshalCanonical(s.ToIR())
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// ProgramHash computes the content fingerprint of a program.
// Call order is significant.
func ProgramHash(p *Program) (string, error) {
	calls := make(IRArray, len(p.Calls))
	for i := range p.Calls {
		calls[i] = p.Calls[i].ToIR()
	}
	canonical, err := MarshalCanonical(IRObject{"calls": calls})
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// RootTokenName derives the short name of the root marker allocated for a
// refined call: RootTokenPrefix followed by 8 hex digits of the call's
// identity hash. The result is stable across passes for the same call.
func RootTokenName(callID, callee string) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"id":     IRString(callID),
		"callee": IRString(callee),
	})
	if err != nil {
		return "", fmt.Errorf("RootTokenName: failed to marshal: %w", err)
	}
	return RootTokenPrefix + hashWithDomain(DomainToken, canonical)[:8], nil
}

// MustSchemaHash is like SchemaHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSchemaHash(s Schema) string {
	h, err := SchemaHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
