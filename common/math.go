package common

import (
	"github.com/chewxy/math32"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// IdentityMat4 returns a fresh identity matrix.
func IdentityMat4() [16]float32 {
	return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order. out may alias a or b.
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// MulMat4 is the value form of Mul4.
func MulMat4(a, b [16]float32) [16]float32 {
	var out [16]float32
	Mul4(out[:], a[:], b[:])
	return out
}

// Perspective creates a right-handed perspective projection matrix mapping view depth
// into the WebGPU clip range [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / math32.Tan(fovY/2.0)
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// Ortho creates a right-handed orthographic projection matrix mapping view depth
// into the clip range [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right, bottom, top: view-space extents of the box
//   - near, far: distances to the near and far planes along -Z
func Ortho(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = 1 / (near - far)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = near / (near - far)
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular the output is left
// unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
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
		return false
	}
	invDet := 1.0 / det

	var buf [16]float32
	buf[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	buf[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	buf[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	buf[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	buf[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	buf[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	buf[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	buf[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	buf[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	buf[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	buf[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	buf[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	buf[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	buf[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	buf[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	buf[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	copy(out, buf[:])
	return true
}

// InverseMat4 is the value form of Invert4. A singular input yields the identity.
func InverseMat4(m [16]float32) [16]float32 {
	out := IdentityMat4()
	Invert4(out[:], m[:])
	return out
}

// Transpose4 transposes a 4x4 matrix. out may alias m.
func Transpose4(out, m []float32) {
	var buf [16]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			buf[r*4+c] = m[c*4+r]
		}
	}
	copy(out, buf[:])
}

// LookAt creates a view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eyeX, eyeY, eyeZ: camera position in world space
//   - centerX, centerY, centerZ: target point the camera looks at
//   - upX, upY, upZ: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	z := Normalize3([3]float32{eyeX - centerX, eyeY - centerY, eyeZ - centerZ})
	x := Cross3([3]float32{upX, upY, upZ}, z)
	if Length3(x) == 0 {
		// up is parallel to the view direction; pick any perpendicular axis
		x = Cross3([3]float32{0, 0, 1}, z)
		if Length3(x) == 0 {
			x = Cross3([3]float32{1, 0, 0}, z)
		}
	}
	x = Normalize3(x)
	y := Cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -(x[0]*eyeX + x[1]*eyeY + x[2]*eyeZ)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -(y[0]*eyeX + y[1]*eyeY + y[2]*eyeZ)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -(z[0]*eyeX + z[1]*eyeY + z[2]*eyeZ)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// TransformPoint applies m to the point p (w = 1) and performs the perspective divide.
func TransformPoint(m [16]float32, p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformVec4 applies m to a homogeneous vector without dividing.
func TransformVec4(m [16]float32, v [4]float32) [4]float32 {
	return [4]float32{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12]*v[3],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13]*v[3],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14]*v[3],
		m[3]*v[0] + m[7]*v[1] + m[11]*v[2] + m[15]*v[3],
	}
}

// TransformDirection applies the upper 3x3 of m to d.
func TransformDirection(m [16]float32, d [3]float32) [3]float32 {
	return [3]float32{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// Translation returns the translation column of m.
func Translation(m [16]float32) [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// ComposeTRS builds translation * rotation * scale.
//
// Parameters:
//   - t: translation
//   - q: unit quaternion (x, y, z, w)
//   - s: per-axis scale
//
// Returns:
//   - [16]float32: the column-major model matrix
func ComposeTRS(t [3]float32, q [4]float32, s [3]float32) [16]float32 {
	r := QuatToMat4(q)
	for i := 0; i < 3; i++ {
		r[i] *= s[0]
		r[4+i] *= s[1]
		r[8+i] *= s[2]
	}
	r[12], r[13], r[14] = t[0], t[1], t[2]
	return r
}

// DecomposeTRS splits an affine matrix without shear into translation, rotation and scale.
// A negative determinant is folded into the x scale.
func DecomposeTRS(m [16]float32) (t [3]float32, q [4]float32, s [3]float32) {
	t = [3]float32{m[12], m[13], m[14]}
	s[0] = Length3([3]float32{m[0], m[1], m[2]})
	s[1] = Length3([3]float32{m[4], m[5], m[6]})
	s[2] = Length3([3]float32{m[8], m[9], m[10]})

	det := m[0]*(m[5]*m[10]-m[9]*m[6]) - m[4]*(m[1]*m[10]-m[9]*m[2]) + m[8]*(m[1]*m[6]-m[5]*m[2])
	if det < 0 {
		s[0] = -s[0]
	}

	var r [16]float32
	r[15] = 1
	for i := 0; i < 3; i++ {
		if s[0] != 0 {
			r[i] = m[i] / s[0]
		}
		if s[1] != 0 {
			r[4+i] = m[4+i] / s[1]
		}
		if s[2] != 0 {
			r[8+i] = m[8+i] / s[2]
		}
	}
	q = QuatFromMat4(r)
	return t, q, s
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatFromAxisAngle builds a unit quaternion rotating angle radians about axis.
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	a := Normalize3(axis)
	s, c := math32.Sincos(angle * 0.5)
	return [4]float32{a[0] * s, a[1] * s, a[2] * s, c}
}

// QuatMul returns a * b, the rotation b followed by a.
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatToMat4 converts a unit quaternion into a rotation matrix.
func QuatToMat4(q [4]float32) [16]float32 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return [16]float32{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// QuatFromMat4 extracts the rotation of a pure rotation matrix.
func QuatFromMat4(m [16]float32) [4]float32 {
	m00, m11, m22 := m[0], m[5], m[10]
	trace := m00 + m11 + m22
	var q [4]float32
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q[3] = 0.25 * s
		q[0] = (m[6] - m[9]) / s
		q[1] = (m[8] - m[2]) / s
		q[2] = (m[1] - m[4]) / s
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		q[3] = (m[6] - m[9]) / s
		q[0] = 0.25 * s
		q[1] = (m[4] + m[1]) / s
		q[2] = (m[8] + m[2]) / s
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		q[3] = (m[8] - m[2]) / s
		q[0] = (m[4] + m[1]) / s
		q[1] = 0.25 * s
		q[2] = (m[9] + m[6]) / s
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		q[3] = (m[1] - m[4]) / s
		q[0] = (m[8] + m[2]) / s
		q[1] = (m[9] + m[6]) / s
		q[2] = 0.25 * s
	}
	return q
}

// Dot3 returns the dot product of a and b.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross3 returns a x b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length3 returns the Euclidean length of v.
func Length3(v [3]float32) float32 {
	return math32.Sqrt(Dot3(v, v))
}

// Normalize3 returns v scaled to unit length, or v unchanged when it has zero length.
func Normalize3(v [3]float32) [3]float32 {
	l := Length3(v)
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Add3 returns a + b.
func Add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Scale3 returns v * s.
func Scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// DistanceSq3 returns the squared distance between a and b.
func DistanceSq3(a, b [3]float32) float32 {
	d := Sub3(a, b)
	return Dot3(d, d)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

// CubeFaceBasis holds the forward and up vectors of the six cube faces in the order
// +X, -X, +Y, -Y, +Z, -Z. Point light shadow cameras and shadow lookups both use it.
var CubeFaceBasis = [6][2][3]float32{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// CubeFaceIndex returns the CubeFaceBasis index whose forward axis is the major axis of d.
func CubeFaceIndex(d [3]float32) int {
	ax, ay, az := math32.Abs(d[0]), math32.Abs(d[1]), math32.Abs(d[2])
	switch {
	case ax >= ay && ax >= az:
		if d[0] >= 0 {
			return 0
		}
		return 1
	case ay >= az:
		if d[1] >= 0 {
			return 2
		}
		return 3
	default:
		if d[2] >= 0 {
			return 4
		}
		return 5
	}
}
