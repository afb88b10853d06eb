package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Matrix4 is a 4x4 float32 matrix stored in column-major order
// (OpenGL/WebGPU convention): element (row, col) is at index col*4 + row.
type Matrix4 [16]float32

// Identity4 returns the identity matrix.
func Identity4() Matrix4 {
	var m Matrix4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Mul multiplies two matrices. Result: out = m * rhs.
//
// Parameters:
//   - rhs: right-hand matrix
//
// Returns:
//   - Matrix4: the product matrix
func (m Matrix4) Mul(rhs Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ { // column of rhs
		for j := 0; j < 4; j++ { // row of m
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += m[k*4+j] * rhs[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// MulPoint transforms a point by the matrix, assuming w = 1 and ignoring
// the projective divide. Suitable for affine view/model matrices.
//
// Parameters:
//   - p: the point to transform
//
// Returns:
//   - Vector3: the transformed point
func (m Matrix4) MulPoint(p Vector3) Vector3 {
	return Vector3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// MulVector transforms a direction by the matrix, assuming w = 0 so that
// translation is ignored.
//
// Parameters:
//   - v: the direction to transform
//
// Returns:
//   - Vector3: the transformed direction
func (m Matrix4) MulVector(v Vector3) Vector3 {
	return Vector3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulProject transforms a point by the matrix including the projective divide.
// Used for shadow-matrix verification and screen-space math.
//
// Parameters:
//   - p: the point to transform
//
// Returns:
//   - Vector3: the projected point
func (m Matrix4) MulProject(p Vector3) Vector3 {
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if math32.Abs(w) < Epsilon {
		w = 1
	}
	inv := 1 / w
	return m.MulPoint(p).Scale(inv)
}

// Translation returns the translation component of the matrix.
func (m Matrix4) Translation() Vector3 {
	return Vector3{m[12], m[13], m[14]}
}

// SetTranslation replaces the translation component of the matrix.
func (m *Matrix4) SetTranslation(t Vector3) {
	m[12], m[13], m[14] = t.X, t.Y, t.Z
}

// SetScale replaces the diagonal scale component of the matrix.
func (m *Matrix4) SetScale(s Vector3) {
	m[0], m[5], m[10] = s.X, s.Y, s.Z
}

// RotationTransposed returns the transpose of the rotation part with zero
// translation. For pure rotation matrices this is the inverse rotation.
func (m Matrix4) RotationTransposed() Matrix4 {
	out := Identity4()
	out[0], out[4], out[8] = m[0], m[1], m[2]
	out[1], out[5], out[9] = m[4], m[5], m[6]
	out[2], out[6], out[10] = m[8], m[9], m[10]
	return out
}

// TranslationMatrix returns a matrix that translates by t.
func TranslationMatrix(t Vector3) Matrix4 {
	m := Identity4()
	m.SetTranslation(t)
	return m
}

// Perspective creates a perspective projection matrix for a camera looking
// along +Z, compatible with WebGPU clip space [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - Matrix4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Matrix4 {
	f := 1 / math32.Tan(fovY/2)
	var m Matrix4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (far - near)
	m[11] = 1
	m[14] = -(near * far) / (far - near)
	return m
}

// Orthographic creates an orthographic projection matrix for a camera looking
// along +Z, compatible with WebGPU clip space [0, 1]. Used for directional
// shadow cameras.
//
// Parameters:
//   - width, height: view volume extents in world units
//   - near, far: clipping plane distances
//
// Returns:
//   - Matrix4: the projection matrix
func Orthographic(width, height, near, far float32) Matrix4 {
	m := Identity4()
	m[0] = 2 / width
	m[5] = 2 / height
	m[10] = 1 / (far - near)
	m[14] = -near / (far - near)
	return m
}

// Inverted computes the inverse of the matrix using the Laplace expansion
// (cofactor) method. If the matrix is singular (determinant ≈ 0) the identity
// matrix is returned along with false.
//
// Returns:
//   - Matrix4: the inverse matrix, or identity if singular
//   - bool: true if the matrix was successfully inverted
func (m Matrix4) Inverted() (Matrix4, bool) {
	// 2x2 sub-determinants of the upper-left and lower-right quadrants.
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity4(), false
	}

	invDet := 1 / det

	var out Matrix4
	out[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	out[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	out[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	out[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	out[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	out[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	out[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	out[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	out[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	out[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	out[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	out[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	out[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	out[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	out[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	out[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	return out, true
}

// LookRotation builds a rotation matrix whose view direction points along the
// given vector, using the provided up hint. Falls back to the world X axis
// when the direction is parallel to the hint.
//
// Parameters:
//   - dir: forward direction (normalized internally)
//   - up: up hint (normalized internally)
//
// Returns:
//   - Matrix4: a pure rotation matrix
func LookRotation(dir, up Vector3) Matrix4 {
	forward := dir.Normalized()
	if forward.LengthSquared() == 0 {
		forward = Forward
	}
	upN := up.Normalized()
	right := upN.Cross(forward)
	if right.LengthSquared() < Epsilon {
		right = Right
	}
	right = right.Normalized()
	upN = forward.Cross(right)

	// Camera convention: +Z looks along dir.
	m := Identity4()
	m[0], m[1], m[2] = right.X, right.Y, right.Z
	m[4], m[5], m[6] = upN.X, upN.Y, upN.Z
	m[8], m[9], m[10] = forward.X, forward.Y, forward.Z
	return m
}
