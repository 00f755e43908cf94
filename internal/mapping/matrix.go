package mapping

import (
	"math"

	"beamer/internal/scene"
)

// Mat4 is a 4x4 matrix in row-vector convention: a point transforms as
// v' = v * M, and composition reads left to right.
type Mat4 [4][4]float64

func identityMat4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func (m Mat4) mul(other Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r][k] * other[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

func (m Mat4) row(i int) scene.Vec4 {
	return scene.Vec4{X: m[i][0], Y: m[i][1], Z: m[i][2], W: m[i][3]}
}

func (m Mat4) transpose() Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = m[c][r]
		}
	}
	return out
}

func translationMat4(v scene.Vec3) Mat4 {
	out := identityMat4()
	out[3][0] = v.X
	out[3][1] = v.Y
	out[3][2] = v.Z
	return out
}

// rotationMat4 builds a rotation from Euler angles in degrees: roll about X,
// then pitch about Y, then yaw about Z.
func rotationMat4(r scene.Rotator) Mat4 {
	roll := r.Roll * math.Pi / 180
	pitch := r.Pitch * math.Pi / 180
	yaw := r.Yaw * math.Pi / 180

	sr, cr := math.Sincos(roll)
	sp, cp := math.Sincos(pitch)
	sy, cy := math.Sincos(yaw)

	rx := Mat4{
		{1, 0, 0, 0},
		{0, cr, sr, 0},
		{0, -sr, cr, 0},
		{0, 0, 0, 1},
	}
	ry := Mat4{
		{cp, 0, -sp, 0},
		{0, 1, 0, 0},
		{sp, 0, cp, 0},
		{0, 0, 0, 1},
	}
	rz := Mat4{
		{cy, sy, 0, 0},
		{-sy, cy, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	return rx.mul(ry).mul(rz)
}

// viewMat4 inverts a projector placement: translate by the negated position,
// then apply the transposed rotation.
func viewMat4(t scene.Transform) Mat4 {
	neg := scene.Vec3{X: -t.Position.X, Y: -t.Position.Y, Z: -t.Position.Z}
	return translationMat4(neg).mul(rotationMat4(t.Rotation).transpose())
}

// perspectiveMat4 builds a perspective projection. Degenerate inputs are
// corrected before construction: near is floored at 0.01 and far is kept
// strictly beyond near so the depth terms never divide by zero.
func perspectiveMat4(fovDeg, aspect, near, far float64) Mat4 {
	if aspect <= 0.01 {
		aspect = 1
	}
	near = math.Max(0.01, near)
	far = math.Max(near+0.01, far)

	halfFov := fovDeg * math.Pi / 360
	tanHalf := math.Tan(halfFov)
	if tanHalf == 0 {
		tanHalf = 1e-6
	}

	var out Mat4
	out[0][0] = 1 / (tanHalf * aspect)
	out[1][1] = 1 / tanHalf
	out[2][2] = far / (far - near)
	out[2][3] = 1
	out[3][2] = -near * far / (far - near)
	return out
}

// orthographicMat4 builds a parallel projection from full extents.
func orthographicMat4(sizeW, sizeH, near, far float64) Mat4 {
	halfW := math.Max(1e-4, sizeW/2)
	halfH := math.Max(1e-4, sizeH/2)
	near = math.Max(0.01, near)
	far = math.Max(near+0.01, far)
	depth := far - near

	out := identityMat4()
	out[0][0] = 1 / halfW
	out[1][1] = 1 / halfH
	out[2][2] = 1 / depth
	out[3][2] = -near / depth
	return out
}

// customMat4 reads an explicit matrix from m{row}{col} blob entries, leaving
// unspecified entries at their identity value.
func customMat4(blob map[string]any) Mat4 {
	out := identityMat4()
	if blob == nil {
		return out
	}
	keys := [4][4]string{
		{"m00", "m01", "m02", "m03"},
		{"m10", "m11", "m12", "m13"},
		{"m20", "m21", "m22", "m23"},
		{"m30", "m31", "m32", "m33"},
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = blobFloat(blob, keys[r][c], out[r][c])
		}
	}
	return out
}

// axisVector maps an axis name to its unit vector, defaulting to Z.
func axisVector(axis string) scene.Vec3 {
	switch axis {
	case "x", "X":
		return scene.Vec3{X: 1}
	case "y", "Y":
		return scene.Vec3{Y: 1}
	default:
		return scene.Vec3{Z: 1}
	}
}
