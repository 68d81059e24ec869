package models

import "fmt"

// VariantType discriminates the payload held by a Variant.
type VariantType int

const (
	VariantTypeString VariantType = iota
	VariantTypeDouble
	VariantTypeInteger
	VariantTypeBoolean
)

func (t VariantType) String() string {
	switch t {
	case VariantTypeString:
		return "String"
	case VariantTypeDouble:
		return "Double"
	case VariantTypeInteger:
		return "Integer"
	case VariantTypeBoolean:
		return "Boolean"
	default:
		return fmt.Sprintf("VariantType(%d)", int(t))
	}
}

// Variant holds exactly one of a string, double, integer or boolean.
//
// Callers must check Type before using an accessor. An accessor called for
// a kind the variant does not hold returns that kind's zero value; it never
// converts between kinds.
type Variant struct {
	kind VariantType
	s    string
	d    float64
	i    int
	b    bool
}

func StringVariant(v string) Variant {
	return Variant{kind: VariantTypeString, s: v}
}

func DoubleVariant(v float64) Variant {
	return Variant{kind: VariantTypeDouble, d: v}
}

func IntegerVariant(v int) Variant {
	return Variant{kind: VariantTypeInteger, i: v}
}

func BooleanVariant(v bool) Variant {
	return Variant{kind: VariantTypeBoolean, b: v}
}

// Type returns the active kind.
func (v Variant) Type() VariantType {
	return v.kind
}

func (v Variant) AsString() string {
	if v.kind != VariantTypeString {
		return ""
	}

	return v.s
}

func (v Variant) AsDouble() float64 {
	if v.kind != VariantTypeDouble {
		return 0
	}

	return v.d
}

func (v Variant) AsInteger() int {
	if v.kind != VariantTypeInteger {
		return 0
	}

	return v.i
}

func (v Variant) AsBoolean() bool {
	if v.kind != VariantTypeBoolean {
		return false
	}

	return v.b
}

// Interface returns the payload as string, float64, int or bool.
func (v Variant) Interface() any {
	switch v.kind {
	case VariantTypeString:
		return v.s
	case VariantTypeDouble:
		return v.d
	case VariantTypeInteger:
		return v.i
	case VariantTypeBoolean:
		return v.b
	default:
		return nil
	}
}
