package common

import "github.com/chewxy/math32"

// Sphere is a center/radius bounding volume.
type Sphere struct {
	Center Vector3
	Radius float32
}

// SphereFromPoints returns a sphere enclosing the given points. The center is
// the centroid and the radius the largest distance from it, which is not the
// minimal enclosing sphere but is cheap and conservative.
func SphereFromPoints(points []Vector3) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}
	var center Vector3
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Scale(1 / float32(len(points)))

	radius := float32(0)
	for _, p := range points {
		if d := p.Sub(center).LengthSquared(); d > radius {
			radius = d
		}
	}
	return Sphere{Center: center, Radius: math32.Sqrt(radius)}
}

// SphereFromBox returns the sphere enclosing a bounding box.
func SphereFromBox(box BoundingBox) Sphere {
	return Sphere{Center: box.Center(), Radius: box.HalfSize().Length()}
}

// IsInsideFast reports whether a bounding box overlaps the sphere at all.
// The test is conservative against the closest point of the box.
func (s Sphere) IsInsideFast(box BoundingBox) bool {
	closest := box.Min.Max(s.Center.Min(box.Max))
	return closest.Sub(s.Center).LengthSquared() <= s.Radius*s.Radius
}

// ContainsPoint reports whether a point lies inside or on the sphere.
func (s Sphere) ContainsPoint(p Vector3) bool {
	return p.Sub(s.Center).LengthSquared() <= s.Radius*s.Radius
}
