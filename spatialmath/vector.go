// Package spatialmath defines the vector, quaternion and transform operations
// used by the solvers and constraints.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// floatEpsilon is the threshold below which vector lengths and quaternion
// components are treated as zero.
const floatEpsilon = 1e-8

// SafeNormalize returns the unit vector pointing along v, or the zero vector
// if v has (near) zero length. Solvers rely on the zero fallback to keep NaNs
// out of iterative passes.
func SafeNormalize(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n < floatEpsilon {
		return r3.Vector{}
	}
	return v.Mul(1. / n)
}

// Lerp linearly interpolates between a and b by t. t is not clamped.
func Lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(t))
}

// ProjectOntoPlane removes from v its component along the given plane normal.
// The normal need not be unit length; a zero normal returns v unchanged.
func ProjectOntoPlane(v, normal r3.Vector) r3.Vector {
	n := SafeNormalize(normal)
	return v.Sub(n.Mul(v.Dot(n)))
}

// AnyPerpendicular returns an arbitrary unit vector perpendicular to v, or the
// zero vector if v itself is (near) zero.
func AnyPerpendicular(v r3.Vector) r3.Vector {
	if v.Norm() < floatEpsilon {
		return r3.Vector{}
	}
	perp := v.Cross(r3.Vector{X: 0, Y: 1, Z: 0})
	if perp.Norm() < floatEpsilon {
		perp = v.Cross(r3.Vector{X: 1, Y: 0, Z: 0})
	}
	return SafeNormalize(perp)
}

// SignedAngleAround returns the angle from a to b measured around the given
// axis, in the range (-pi, pi]. Inputs are projected onto the plane
// perpendicular to the axis first.
func SignedAngleAround(a, b, axis r3.Vector) float64 {
	ax := SafeNormalize(axis)
	ap := ProjectOntoPlane(a, ax)
	bp := ProjectOntoPlane(b, ax)
	if ap.Norm() < floatEpsilon || bp.Norm() < floatEpsilon {
		return 0
	}
	return math.Atan2(ax.Dot(ap.Cross(bp)), ap.Dot(bp))
}

// VectorAlmostEqual returns whether two vectors are within tol of each other
// component-wise.
func VectorAlmostEqual(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() < tol
}
