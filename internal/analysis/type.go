// Package analysis defines the property analysis record, its normalization
// into a typed per-strategy form, and the validation rules gating every
// calculation.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when an analysis type tag is not supported.
var ErrUnknownType = errors.New("unknown analysis type")

// Type tags the investment strategy an analysis is evaluated under.
type Type string

// Supported analysis types.
const (
	TypeLTR           Type = "LTR"
	TypeBRRRR         Type = "BRRRR"
	TypePadSplitLTR   Type = "PadSplit-LTR"
	TypePadSplitBRRRR Type = "PadSplit-BRRRR"
	TypeLeaseOption   Type = "Lease Option"
	TypeMultiFamily   Type = "Multi-Family"
)

var typeAliases = map[string]Type{
	"ltr":            TypeLTR,
	"longtermrental": TypeLTR,
	"brrrr":          TypeBRRRR,
	"padsplitltr":    TypePadSplitLTR,
	"padsplitbrrrr":  TypePadSplitBRRRR,
	"leaseoption":    TypeLeaseOption,
	"multifamily":    TypeMultiFamily,
}

// Types lists every supported analysis type.
func Types() []Type {
	return []Type{TypeLTR, TypeBRRRR, TypePadSplitLTR, TypePadSplitBRRRR, TypeLeaseOption, TypeMultiFamily}
}

// ParseType resolves a type name case-insensitively, treating spaces,
// underscores and hyphens alike.
func ParseType(name string) (Type, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Valid reports whether t is one of the canonical type tags.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// IsBRRRR reports whether the strategy uses the initial/refinance loan pair.
func (t Type) IsBRRRR() bool {
	return t == TypeBRRRR || t == TypePadSplitBRRRR
}

// IsPadSplit reports whether the strategy carries PadSplit expenses.
func (t Type) IsPadSplit() bool {
	return t == TypePadSplitLTR || t == TypePadSplitBRRRR
}

func (t Type) String() string {
	return string(t)
}
