package common

// FloatRange is an inclusive [Min, Max] interval of float32 values. The zero
// value is not valid; use UndefinedFloatRange as the identity for unions.
type FloatRange struct {
	Min float32
	Max float32
}

// UndefinedFloatRange returns an inverted range that unions as the identity
// element.
func UndefinedFloatRange() FloatRange {
	return FloatRange{Min: LargeValue, Max: -LargeValue}
}

// Valid reports whether the range contains at least one value.
func (r FloatRange) Valid() bool {
	return r.Min <= r.Max
}

// Union returns the smallest range covering both ranges. Invalid ranges act
// as the identity element.
func (r FloatRange) Union(other FloatRange) FloatRange {
	if !other.Valid() {
		return r
	}
	if !r.Valid() {
		return other
	}
	return FloatRange{Min: min(r.Min, other.Min), Max: max(r.Max, other.Max)}
}

// UnionValue extends the range to include a single value.
func (r FloatRange) UnionValue(v float32) FloatRange {
	return r.Union(FloatRange{Min: v, Max: v})
}

// Intersect returns the overlap of two ranges, which may be invalid when the
// ranges are disjoint.
func (r FloatRange) Intersect(other FloatRange) FloatRange {
	return FloatRange{Min: max(r.Min, other.Min), Max: min(r.Max, other.Max)}
}

// Intersects reports whether two ranges overlap.
func (r FloatRange) Intersects(other FloatRange) bool {
	return r.Intersect(other).Valid()
}
