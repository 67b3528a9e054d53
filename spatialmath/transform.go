package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a position, rotation and scale in some frame of reference.
type Transform struct {
	Position r3.Vector
	Rotation quat.Number
	Scale    r3.Vector
}

// NewZeroTransform returns a transform with no translation, identity rotation
// and unit scale. Since the zero value of a quaternion is not a valid
// rotation, this should be used instead of Transform{}.
func NewZeroTransform() Transform {
	return Transform{
		Rotation: NewZeroRotation(),
		Scale:    r3.Vector{X: 1, Y: 1, Z: 1},
	}
}

// NewTransform returns a transform with the given position and rotation and
// unit scale.
func NewTransform(position r3.Vector, rotation quat.Number) Transform {
	return Transform{Position: position, Rotation: Normalize(rotation), Scale: r3.Vector{X: 1, Y: 1, Z: 1}}
}

// TransformPoint maps a point from the transform's local frame into its parent
// frame: scale, then rotate, then translate.
func (t Transform) TransformPoint(p r3.Vector) r3.Vector {
	scaled := r3.Vector{X: p.X * t.Scale.X, Y: p.Y * t.Scale.Y, Z: p.Z * t.Scale.Z}
	return QuatRotateVector(t.Rotation, scaled).Add(t.Position)
}

// Compose returns the transform equivalent to applying child in parent's
// frame. Rotations compose as parent * child; quaternions are renormalized
// after composition.
func Compose(parent, child Transform) Transform {
	return Transform{
		Position: parent.TransformPoint(child.Position),
		Rotation: Normalize(quat.Mul(parent.Rotation, child.Rotation)),
		Scale: r3.Vector{
			X: parent.Scale.X * child.Scale.X,
			Y: parent.Scale.Y * child.Scale.Y,
			Z: parent.Scale.Z * child.Scale.Z,
		},
	}
}

// ToLocal expresses the world transform of a child relative to the world
// transform of its parent. Scale is assumed uniform and is carried through
// componentwise.
func ToLocal(parentWorld, childWorld Transform) Transform {
	invRot := quat.Conj(Normalize(parentWorld.Rotation))
	local := Transform{
		Position: QuatRotateVector(invRot, childWorld.Position.Sub(parentWorld.Position)),
		Rotation: Normalize(quat.Mul(invRot, childWorld.Rotation)),
		Scale:    r3.Vector{X: 1, Y: 1, Z: 1},
	}
	if parentWorld.Scale.X > floatEpsilon {
		local.Scale.X = childWorld.Scale.X / parentWorld.Scale.X
	}
	if parentWorld.Scale.Y > floatEpsilon {
		local.Scale.Y = childWorld.Scale.Y / parentWorld.Scale.Y
	}
	if parentWorld.Scale.Z > floatEpsilon {
		local.Scale.Z = childWorld.Scale.Z / parentWorld.Scale.Z
	}
	if parentWorld.Scale.X > floatEpsilon && parentWorld.Scale.Y > floatEpsilon && parentWorld.Scale.Z > floatEpsilon {
		local.Position = r3.Vector{
			X: local.Position.X / parentWorld.Scale.X,
			Y: local.Position.Y / parentWorld.Scale.Y,
			Z: local.Position.Z / parentWorld.Scale.Z,
		}
	}
	return local
}

// TransformAlmostEqual returns whether two transforms have nearly the same
// position and rotation.
func TransformAlmostEqual(t1, t2 Transform, tol float64) bool {
	return VectorAlmostEqual(t1.Position, t2.Position, tol) && QuaternionAlmostEqual(t1.Rotation, t2.Rotation, tol)
}
