package common

import "github.com/chewxy/math32"

// BoundingBox is an axis-aligned box. A default-constructed box is undefined
// (Min > Max) and merges as the identity element.
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// UndefinedBoundingBox returns a box that no point lies in; merging any point
// or box into it yields that point or box.
func UndefinedBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Vector3{LargeValue, LargeValue, LargeValue},
		Max: Vector3{-LargeValue, -LargeValue, -LargeValue},
	}
}

// BoundingBoxFromSphere returns the tight axis-aligned box around a sphere.
func BoundingBoxFromSphere(s Sphere) BoundingBox {
	r := Vector3{s.Radius, s.Radius, s.Radius}
	return BoundingBox{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Defined reports whether the box contains at least one point.
func (b BoundingBox) Defined() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Center returns the box midpoint.
func (b BoundingBox) Center() Vector3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents along each axis.
func (b BoundingBox) Size() Vector3 {
	return b.Max.Sub(b.Min)
}

// HalfSize returns half the box extents along each axis.
func (b BoundingBox) HalfSize() Vector3 {
	return b.Size().Scale(0.5)
}

// MergePoint grows the box to contain a point.
func (b BoundingBox) MergePoint(p Vector3) BoundingBox {
	return BoundingBox{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Merge grows the box to contain another box. Undefined boxes act as the
// identity element.
func (b BoundingBox) Merge(other BoundingBox) BoundingBox {
	if !other.Defined() {
		return b
	}
	if !b.Defined() {
		return other
	}
	return BoundingBox{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Transformed returns the axis-aligned box containing this box after the
// given transform.
func (b BoundingBox) Transformed(m Matrix4) BoundingBox {
	center := b.Center()
	edge := b.HalfSize()
	newCenter := m.MulPoint(center)
	newEdge := Vector3{
		math32.Abs(m[0])*edge.X + math32.Abs(m[4])*edge.Y + math32.Abs(m[8])*edge.Z,
		math32.Abs(m[1])*edge.X + math32.Abs(m[5])*edge.Y + math32.Abs(m[9])*edge.Z,
		math32.Abs(m[2])*edge.X + math32.Abs(m[6])*edge.Y + math32.Abs(m[10])*edge.Z,
	}
	return BoundingBox{Min: newCenter.Sub(newEdge), Max: newCenter.Add(newEdge)}
}

// IsInsideFast reports whether another box overlaps this box at all.
func (b BoundingBox) IsInsideFast(other BoundingBox) bool {
	return other.Max.X >= b.Min.X && other.Min.X <= b.Max.X &&
		other.Max.Y >= b.Min.Y && other.Min.Y <= b.Max.Y &&
		other.Max.Z >= b.Min.Z && other.Min.Z <= b.Max.Z
}

// ContainsPoint reports whether a point lies inside or on the box.
func (b BoundingBox) ContainsPoint(p Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// DistanceToPoint returns the distance from a point to the closest point of
// the box, or zero when the point is inside.
func (b BoundingBox) DistanceToPoint(p Vector3) float32 {
	closest := p.Max(b.Min).Min(b.Max)
	return p.Sub(closest).Length()
}
