package common

// Polyhedron is a collection of polygon faces used for shadow camera focusing.
// Faces may become open after clipping; only the vertex set matters for the
// bounding volume queries below, so no cap face is rebuilt.
type Polyhedron struct {
	Faces [][]Vector3
}

// PolyhedronFromFrustum builds the six quad faces of a frustum.
func PolyhedronFromFrustum(f Frustum) Polyhedron {
	v := f.Vertices
	var p Polyhedron
	p.Faces = [][]Vector3{
		{v[0], v[4], v[5], v[1]},
		{v[1], v[5], v[6], v[2]},
		{v[2], v[6], v[7], v[3]},
		{v[3], v[7], v[4], v[0]},
		{v[4], v[7], v[6], v[5]},
		{v[0], v[1], v[2], v[3]},
	}
	return p
}

// Empty reports whether the polyhedron has no faces left.
func (p Polyhedron) Empty() bool {
	return len(p.Faces) == 0
}

// ClipPlane clips every face against a plane, keeping the positive half-space.
// Faces fully behind the plane are removed.
func (p *Polyhedron) ClipPlane(plane Plane) {
	out := p.Faces[:0]
	for _, face := range p.Faces {
		clipped := clipFace(face, plane)
		if len(clipped) >= 3 {
			out = append(out, clipped)
		}
	}
	p.Faces = out
}

// ClipBox clips the polyhedron against the six planes of a bounding box.
func (p *Polyhedron) ClipBox(box BoundingBox) {
	p.ClipPlane(Plane{Normal: Vector3{1, 0, 0}, D: -box.Min.X})
	p.ClipPlane(Plane{Normal: Vector3{-1, 0, 0}, D: box.Max.X})
	p.ClipPlane(Plane{Normal: Vector3{0, 1, 0}, D: -box.Min.Y})
	p.ClipPlane(Plane{Normal: Vector3{0, -1, 0}, D: box.Max.Y})
	p.ClipPlane(Plane{Normal: Vector3{0, 0, 1}, D: -box.Min.Z})
	p.ClipPlane(Plane{Normal: Vector3{0, 0, -1}, D: box.Max.Z})
}

// clipFace runs Sutherland-Hodgman on a single polygon against a plane.
func clipFace(face []Vector3, plane Plane) []Vector3 {
	var out []Vector3
	for i := range face {
		cur := face[i]
		next := face[(i+1)%len(face)]
		curDist := plane.DistanceTo(cur)
		nextDist := plane.DistanceTo(next)
		if curDist >= 0 {
			out = append(out, cur)
		}
		if (curDist >= 0) != (nextDist >= 0) {
			t := curDist / (curDist - nextDist)
			out = append(out, cur.Lerp(next, t))
		}
	}
	return out
}

// Transformed returns the polyhedron with every vertex transformed.
func (p Polyhedron) Transformed(m Matrix4) Polyhedron {
	out := Polyhedron{Faces: make([][]Vector3, len(p.Faces))}
	for i, face := range p.Faces {
		newFace := make([]Vector3, len(face))
		for j, v := range face {
			newFace[j] = m.MulPoint(v)
		}
		out.Faces[i] = newFace
	}
	return out
}

// Vertices returns all face vertices flattened into one slice.
func (p Polyhedron) Vertices() []Vector3 {
	var out []Vector3
	for _, face := range p.Faces {
		out = append(out, face...)
	}
	return out
}

// BoundingBox returns the axis-aligned box of all vertices, undefined when
// the polyhedron is empty.
func (p Polyhedron) BoundingBox() BoundingBox {
	box := UndefinedBoundingBox()
	for _, face := range p.Faces {
		for _, v := range face {
			box = box.MergePoint(v)
		}
	}
	return box
}

// BoundingSphere returns a sphere enclosing all vertices.
func (p Polyhedron) BoundingSphere() Sphere {
	return SphereFromPoints(p.Vertices())
}
