package math

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 */
func NewMat4Identity() Mat4 {
	out := Mat4{}
	out.Data[0] = 1.0
	out.Data[5] = 1.0
	out.Data[10] = 1.0
	out.Data[15] = 1.0
	return out
}

// Mul returns mt * other.
func (mt Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := float32(0)
			for i := 0; i < 4; i++ {
				sum += mt.Data[row*4+i] * other.Data[i*4+col]
			}
			out.Data[row*4+col] = sum
		}
	}
	return out
}

func NewMat4Translation(position Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[12] = position.X
	out.Data[13] = position.Y
	out.Data[14] = position.Z
	return out
}

func NewMat4Scale(scale Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[0] = scale.X
	out.Data[5] = scale.Y
	out.Data[10] = scale.Z
	return out
}

// NewMat4FromQuat builds a rotation matrix from a unit quaternion.
func NewMat4FromQuat(q Quaternion) Mat4 {
	out := NewMat4Identity()
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	out.Data[0] = 1 - 2*(yy+zz)
	out.Data[1] = 2 * (xy + wz)
	out.Data[2] = 2 * (xz - wy)

	out.Data[4] = 2 * (xy - wz)
	out.Data[5] = 1 - 2*(xx+zz)
	out.Data[6] = 2 * (yz + wx)

	out.Data[8] = 2 * (xz + wy)
	out.Data[9] = 2 * (yz - wx)
	out.Data[10] = 1 - 2*(xx+yy)
	return out
}

// NewMat4TRS composes scale, then rotation, then translation.
func NewMat4TRS(position Vec3, rotation Quaternion, scale Vec3) Mat4 {
	return NewMat4Scale(scale).Mul(NewMat4FromQuat(rotation)).Mul(NewMat4Translation(position))
}

func NewMat4Orthographic(left, right, bottom, top, nearClip, farClip float32) Mat4 {
	out := NewMat4Identity()

	lr := 1.0 / (left - right)
	bt := 1.0 / (bottom - top)
	nf := 1.0 / (nearClip - farClip)

	out.Data[0] = -2.0 * lr
	out.Data[5] = -2.0 * bt
	out.Data[10] = 2.0 * nf

	out.Data[12] = (left + right) * lr
	out.Data[13] = (top + bottom) * bt
	out.Data[14] = (farClip + nearClip) * nf
	return out
}

// MultiplyPoint transforms a position, including translation.
func (mt Mat4) MultiplyPoint(v Vec3) Vec3 {
	return Vec3{
		X: v.X*mt.Data[0] + v.Y*mt.Data[4] + v.Z*mt.Data[8] + mt.Data[12],
		Y: v.X*mt.Data[1] + v.Y*mt.Data[5] + v.Z*mt.Data[9] + mt.Data[13],
		Z: v.X*mt.Data[2] + v.Y*mt.Data[6] + v.Z*mt.Data[10] + mt.Data[14],
	}
}

// MultiplyVector transforms a direction, ignoring translation.
func (mt Mat4) MultiplyVector(v Vec3) Vec3 {
	return Vec3{
		X: v.X*mt.Data[0] + v.Y*mt.Data[4] + v.Z*mt.Data[8],
		Y: v.X*mt.Data[1] + v.Y*mt.Data[5] + v.Z*mt.Data[9],
		Z: v.X*mt.Data[2] + v.Y*mt.Data[6] + v.Z*mt.Data[10],
	}
}

func (mt Mat4) IsIdentity() bool {
	return mt == NewMat4Identity()
}

func NewQuatIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1.0}
}

/**
 * @brief Creates a quaternion rotating angle radians around axis.
 * @param normalize Normalizes the result when true.
 */
func NewQuatFromAxisAngle(axis Vec3, angle float32, normalize bool) Quaternion {
	halfAngle := 0.5 * angle
	s := ksin(halfAngle)
	q := Quaternion{s * axis.X, s * axis.Y, s * axis.Z, kcos(halfAngle)}
	if normalize {
		n := ksqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
		if n > 0 {
			q = Quaternion{q.X / n, q.Y / n, q.Z / n, q.W / n}
		}
	}
	return q
}
