package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the signed distance from origin.
type Plane struct {
	Normal Vector3
	D      float32
}

// PlaneFromPoints constructs a plane through three points. The normal follows
// the winding order of the points (counter-clockwise when viewed from the
// positive half-space).
func PlaneFromPoints(v0, v1, v2 Vector3) Plane {
	normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalized()
	return Plane{Normal: normal, D: -normal.Dot(v0)}
}

// DistanceTo returns the signed distance from the plane to a point.
// Positive values are in the half-space the normal points into.
func (p Plane) DistanceTo(point Vector3) float32 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents a view frustum as six planes plus the eight corner
// vertices. Planes are oriented so that the positive half-space is inside.
// Vertices 0-3 are the near plane corners and 4-7 the far plane corners,
// in (+x +y), (+x -y), (-x -y), (-x +y) order.
type Frustum struct {
	Planes   [6]Plane
	Vertices [8]Vector3
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// PerspectiveFrustum constructs the frustum of a perspective camera looking
// along its local +Z axis.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - zoom: camera zoom factor (1 for none)
//   - nearZ, farZ: clipping plane distances
//   - transform: camera world transform (rotation + translation)
//
// Returns:
//   - Frustum: the world-space frustum
func PerspectiveFrustum(fovY, aspect, zoom, nearZ, farZ float32, transform Matrix4) Frustum {
	halfViewSize := math32.Tan(fovY/2) / zoom
	nearY := nearZ * halfViewSize
	nearX := nearY * aspect
	farY := farZ * halfViewSize
	farX := farY * aspect
	return frustumFromCorners(nearX, nearY, nearZ, farX, farY, farZ, transform)
}

// OrthographicFrustum constructs the frustum of an orthographic camera looking
// along its local +Z axis.
//
// Parameters:
//   - orthoSize: vertical extent of the view volume in world units
//   - aspect: viewport aspect ratio (width/height)
//   - zoom: camera zoom factor (1 for none)
//   - nearZ, farZ: clipping plane distances
//   - transform: camera world transform (rotation + translation)
//
// Returns:
//   - Frustum: the world-space frustum
func OrthographicFrustum(orthoSize, aspect, zoom, nearZ, farZ float32, transform Matrix4) Frustum {
	halfY := orthoSize / (2 * zoom)
	halfX := halfY * aspect
	return frustumFromCorners(halfX, halfY, nearZ, halfX, halfY, farZ, transform)
}

// frustumFromCorners fills vertices from near/far plane half-extents and
// derives the planes. Camera space looks along +Z.
func frustumFromCorners(nearX, nearY, nearZ, farX, farY, farZ float32, transform Matrix4) Frustum {
	var f Frustum
	f.Vertices[0] = transform.MulPoint(Vector3{nearX, nearY, nearZ})
	f.Vertices[1] = transform.MulPoint(Vector3{nearX, -nearY, nearZ})
	f.Vertices[2] = transform.MulPoint(Vector3{-nearX, -nearY, nearZ})
	f.Vertices[3] = transform.MulPoint(Vector3{-nearX, nearY, nearZ})
	f.Vertices[4] = transform.MulPoint(Vector3{farX, farY, farZ})
	f.Vertices[5] = transform.MulPoint(Vector3{farX, -farY, farZ})
	f.Vertices[6] = transform.MulPoint(Vector3{-farX, -farY, farZ})
	f.Vertices[7] = transform.MulPoint(Vector3{-farX, farY, farZ})
	f.updatePlanes()
	return f
}

// Transformed returns the frustum with all vertices transformed by the given
// matrix and planes rebuilt from the new vertices.
func (f Frustum) Transformed(m Matrix4) Frustum {
	var out Frustum
	for i, v := range f.Vertices {
		out.Vertices[i] = m.MulPoint(v)
	}
	out.updatePlanes()
	return out
}

// updatePlanes rebuilds the six planes from the corner vertices. Each plane
// normal is oriented toward the frustum centroid so that the positive
// half-space is inside regardless of handedness of the vertex transform.
func (f *Frustum) updatePlanes() {
	f.Planes[FrustumNear] = PlaneFromPoints(f.Vertices[2], f.Vertices[1], f.Vertices[0])
	f.Planes[FrustumFar] = PlaneFromPoints(f.Vertices[5], f.Vertices[6], f.Vertices[7])
	f.Planes[FrustumLeft] = PlaneFromPoints(f.Vertices[3], f.Vertices[7], f.Vertices[6])
	f.Planes[FrustumRight] = PlaneFromPoints(f.Vertices[1], f.Vertices[5], f.Vertices[4])
	f.Planes[FrustumTop] = PlaneFromPoints(f.Vertices[0], f.Vertices[4], f.Vertices[7])
	f.Planes[FrustumBottom] = PlaneFromPoints(f.Vertices[6], f.Vertices[5], f.Vertices[1])

	var center Vector3
	for _, v := range f.Vertices {
		center = center.Add(v)
	}
	center = center.Scale(1.0 / 8.0)
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(center) < 0 {
			f.Planes[i].Normal = f.Planes[i].Normal.Neg()
			f.Planes[i].D = -f.Planes[i].D
		}
	}
}

// IsInsideFast performs a conservative box-frustum test: it returns false only
// when the box is fully outside one of the planes. Boxes intersecting the
// frustum or fully inside both return true.
//
// Parameters:
//   - box: the world-space bounding box to test
//
// Returns:
//   - bool: false if the box is provably outside the frustum
func (f *Frustum) IsInsideFast(box BoundingBox) bool {
	center := box.Center()
	edge := center.Sub(box.Min)
	for i := range f.Planes {
		p := &f.Planes[i]
		dist := p.Normal.Dot(center) + p.D
		absDist := p.Normal.Abs().Dot(edge)
		if dist < -absDist {
			return false
		}
	}
	return true
}

// BoundingBox returns the axis-aligned box of the frustum's corner vertices.
func (f *Frustum) BoundingBox() BoundingBox {
	box := UndefinedBoundingBox()
	for _, v := range f.Vertices {
		box = box.MergePoint(v)
	}
	return box
}

// IsInsideFastSphere performs a conservative sphere-frustum test.
func (f *Frustum) IsInsideFastSphere(s Sphere) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether a point lies inside or on the frustum.
func (f *Frustum) ContainsPoint(point Vector3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(point) < 0 {
			return false
		}
	}
	return true
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Note: only the planes are filled; the corner vertices stay zero. Use the
// camera-parameter constructors when the vertices are needed.
//
// Parameters:
//   - viewProj: the combined view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj Matrix4) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row
	// So M[i][j] = viewProj[j*4 + i]

	// Left plane: row3 + row0
	f.Planes[FrustumLeft].Normal.X = viewProj[3] + viewProj[0]
	f.Planes[FrustumLeft].Normal.Y = viewProj[7] + viewProj[4]
	f.Planes[FrustumLeft].Normal.Z = viewProj[11] + viewProj[8]
	f.Planes[FrustumLeft].D = viewProj[15] + viewProj[12]

	// Right plane: row3 - row0
	f.Planes[FrustumRight].Normal.X = viewProj[3] - viewProj[0]
	f.Planes[FrustumRight].Normal.Y = viewProj[7] - viewProj[4]
	f.Planes[FrustumRight].Normal.Z = viewProj[11] - viewProj[8]
	f.Planes[FrustumRight].D = viewProj[15] - viewProj[12]

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom].Normal.X = viewProj[3] + viewProj[1]
	f.Planes[FrustumBottom].Normal.Y = viewProj[7] + viewProj[5]
	f.Planes[FrustumBottom].Normal.Z = viewProj[11] + viewProj[9]
	f.Planes[FrustumBottom].D = viewProj[15] + viewProj[13]

	// Top plane: row3 - row1
	f.Planes[FrustumTop].Normal.X = viewProj[3] - viewProj[1]
	f.Planes[FrustumTop].Normal.Y = viewProj[7] - viewProj[5]
	f.Planes[FrustumTop].Normal.Z = viewProj[11] - viewProj[9]
	f.Planes[FrustumTop].D = viewProj[15] - viewProj[13]

	// Near plane: row3 + row2
	f.Planes[FrustumNear].Normal.X = viewProj[3] + viewProj[2]
	f.Planes[FrustumNear].Normal.Y = viewProj[7] + viewProj[6]
	f.Planes[FrustumNear].Normal.Z = viewProj[11] + viewProj[10]
	f.Planes[FrustumNear].D = viewProj[15] + viewProj[14]

	// Far plane: row3 - row2
	f.Planes[FrustumFar].Normal.X = viewProj[3] - viewProj[2]
	f.Planes[FrustumFar].Normal.Y = viewProj[7] - viewProj[6]
	f.Planes[FrustumFar].Normal.Z = viewProj[11] - viewProj[10]
	f.Planes[FrustumFar].D = viewProj[15] - viewProj[14]

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Length()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Scale(invLen)
		p.D *= invLen
	}
}
