package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// If the dot product of two unit quaternions exceeds this, they are close
// enough to parallel that slerp falls back to a normalized linear blend.
const slerpParallelDot = 0.9995

// NewZeroRotation returns the identity quaternion.
func NewZeroRotation() quat.Number {
	return quat.Number{Real: 1}
}

// Norm returns the norm of the vector (imaginary) part of the quaternion.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize scales q to unit length. A (near) zero quaternion normalizes to
// the identity rather than NaN.
func Normalize(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n < floatEpsilon {
		return NewZeroRotation()
	}
	return quat.Number{Real: q.Real / n, Imag: q.Imag / n, Jmag: q.Jmag / n, Kmag: q.Kmag / n}
}

// Flip negates all components of q, representing the same rotation from the
// other side of the hypersphere.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// QuaternionAlmostEqual determines if two quaternions represent nearly the
// same rotation, accounting for the double cover.
func QuaternionAlmostEqual(q1, q2 quat.Number, tol float64) bool {
	return math.Abs(math.Abs(QuatDot(Normalize(q1), Normalize(q2)))-1) < tol
}

// NewQuatFromAxisAngle returns the quaternion rotating by theta radians around
// the given axis. A zero axis yields the identity.
func NewQuatFromAxisAngle(axis r3.Vector, theta float64) quat.Number {
	a := SafeNormalize(axis)
	if a.Norm() < floatEpsilon {
		return NewZeroRotation()
	}
	s := math.Sin(theta / 2)
	return quat.Number{Real: math.Cos(theta / 2), Imag: a.X * s, Jmag: a.Y * s, Kmag: a.Z * s}
}

// R4AA represents an R4 axis angle: a rotation axis plus the angle around it.
type R4AA struct {
	Theta float64
	RX    float64
	RY    float64
	RZ    float64
}

// Axis returns the rotation axis as a vector.
func (aa R4AA) Axis() r3.Vector {
	return r3.Vector{X: aa.RX, Y: aa.RY, Z: aa.RZ}
}

// QuatToR4AA converts a quaternion to an R4 axis angle.
func QuatToR4AA(q quat.Number) R4AA {
	denom := Norm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{angle, 1, 0, 0}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatRotateVector rotates the vector v by the rotation q.
func QuatRotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Slerp spherically interpolates from q1 to q2 by t, always along the shorter
// arc. Nearly parallel quaternions are blended linearly and renormalized to
// avoid dividing by a vanishing sine.
func Slerp(q1, q2 quat.Number, t float64) quat.Number {
	q1 = Normalize(q1)
	q2 = Normalize(q2)
	dot := QuatDot(q1, q2)
	if dot < 0 {
		q2 = Flip(q2)
		dot = -dot
	}
	if dot > slerpParallelDot {
		return Normalize(quat.Number{
			Real: q1.Real + t*(q2.Real-q1.Real),
			Imag: q1.Imag + t*(q2.Imag-q1.Imag),
			Jmag: q1.Jmag + t*(q2.Jmag-q1.Jmag),
			Kmag: q1.Kmag + t*(q2.Kmag-q1.Kmag),
		})
	}
	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	s1 := math.Cos(theta) - dot*math.Sin(theta)/sinTheta0
	s2 := math.Sin(theta) / sinTheta0
	return Normalize(quat.Number{
		Real: s1*q1.Real + s2*q2.Real,
		Imag: s1*q1.Imag + s2*q2.Imag,
		Jmag: s1*q1.Jmag + s2*q2.Jmag,
		Kmag: s1*q1.Kmag + s2*q2.Kmag,
	})
}

// LookRotation returns the rotation whose +Z axis points along forward and
// whose +Y axis is as close to up as possible. A (near) zero forward returns
// the identity; an up parallel to forward is replaced with an arbitrary
// perpendicular.
func LookRotation(forward, up r3.Vector) quat.Number {
	f := SafeNormalize(forward)
	if f.Norm() < floatEpsilon {
		return NewZeroRotation()
	}
	u := SafeNormalize(up)
	if u.Norm() < floatEpsilon || math.Abs(f.Dot(u)) > 1-1e-6 {
		u = AnyPerpendicular(f)
	}
	right := SafeNormalize(u.Cross(f))
	newUp := f.Cross(right)

	m := mgl64.Ident4()
	m.SetCol(0, mgl64.Vec4{right.X, right.Y, right.Z, 0})
	m.SetCol(1, mgl64.Vec4{newUp.X, newUp.Y, newUp.Z, 0})
	m.SetCol(2, mgl64.Vec4{f.X, f.Y, f.Z, 0})
	q := mgl64.Mat4ToQuat(m)
	return Normalize(quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()})
}

// RotationBetween returns the shortest-arc rotation taking the direction of
// from onto the direction of to. Degenerate inputs yield the identity.
func RotationBetween(from, to r3.Vector) quat.Number {
	f := SafeNormalize(from)
	t := SafeNormalize(to)
	if f.Norm() < floatEpsilon || t.Norm() < floatEpsilon {
		return NewZeroRotation()
	}
	if f.Dot(t) < -1+1e-9 {
		// antiparallel: any half-turn perpendicular to f works
		return NewQuatFromAxisAngle(AnyPerpendicular(f), math.Pi)
	}
	q := mgl64.QuatBetweenVectors(mgl64.Vec3{f.X, f.Y, f.Z}, mgl64.Vec3{t.X, t.Y, t.Z})
	return Normalize(quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()})
}

// SwingTwist decomposes q into a swing and a twist about the given axis such
// that q = swing * twist. The twist is the rotation about the axis itself and
// the swing is whatever reorients the axis.
func SwingTwist(q quat.Number, axis r3.Vector) (swing, twist quat.Number) {
	a := SafeNormalize(axis)
	if a.Norm() < floatEpsilon {
		return q, NewZeroRotation()
	}
	vec := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	proj := a.Mul(vec.Dot(a))
	twist = quat.Number{Real: q.Real, Imag: proj.X, Jmag: proj.Y, Kmag: proj.Z}
	if math.Abs(twist.Real) < floatEpsilon && Norm(twist) < floatEpsilon {
		// q is a half-turn perpendicular to the axis; twist is pure swing.
		twist = NewZeroRotation()
	}
	twist = Normalize(twist)
	swing = Normalize(quat.Mul(q, quat.Conj(twist)))
	return swing, twist
}

// TwistAngle returns the signed rotation of q about the given axis, in
// radians, in the range [-pi, pi].
func TwistAngle(q quat.Number, axis r3.Vector) float64 {
	a := SafeNormalize(axis)
	_, twist := SwingTwist(q, a)
	vec := r3.Vector{X: twist.Imag, Y: twist.Jmag, Z: twist.Kmag}
	angle := 2 * math.Atan2(vec.Dot(a), twist.Real)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// AngleBetweenQuats returns the absolute angle of the rotation taking q1 to
// q2, in radians.
func AngleBetweenQuats(q1, q2 quat.Number) float64 {
	delta := quat.Mul(Normalize(q2), quat.Conj(Normalize(q1)))
	return math.Abs(QuatToR4AA(delta).Theta)
}
