package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainUnit   = "extcheck/unit/v1"
	DomainOutput = "extcheck/output/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// UnitHash computes the content-addressed identity of an input unit.
// Equal units hash equally regardless of map ordering or Unicode form.
func UnitHash(u *Unit) (string, error) {
	canonical, err := MarshalCanonical(ToValue(u))
	if err != nil {
		return "", fmt.Errorf("UnitHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainUnit, canonical), nil
}

// OutputHash computes the identity of a transformed unit.
func OutputHash(u *Unit) (string, error) {
	canonical, err := MarshalCanonical(ToValue(u))
	if err != nil {
		return "", fmt.Errorf("OutputHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOutput, canonical), nil
}

// MustUnitHash is like UnitHash but panics on error.
// Use only in tests or when the unit is known to be well formed.
func MustUnitHash(u *Unit) string {
	h, err := UnitHash(u)
	if err != nil {
		panic(err)
	}
	return h
}
