// Package constraint implements per-joint rotation limits: hinge, ball-socket
// and twist clamps applied to a joint's local rotation after solving.
package constraint

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// Type enumerates the supported constraint kinds.
type Type string

// The supported constraint kinds.
const (
	Hinge      Type = "hinge"
	BallSocket Type = "ball_socket"
	Twist      Type = "twist"
)

// Params is the parameter payload for one constraint kind. It is a closed set;
// the dispatcher in Apply type-switches over exactly these implementations.
type Params interface {
	ConstraintType() Type
}

// HingeParams limit rotation to a single axis within a signed angle range.
// Any off-axis component of the rotation is discarded; a hinge has one
// rotational degree of freedom.
type HingeParams struct {
	Axis     r3.Vector
	MinAngle float64 // radians
	MaxAngle float64 // radians
}

// ConstraintType implements Params.
func (p *HingeParams) ConstraintType() Type { return Hinge }

// BallSocketParams limit the swing of the twist axis to a cone and the twist
// about that axis to a signed range.
type BallSocketParams struct {
	TwistAxis  r3.Vector
	SwingLimit float64 // cone half-angle, radians
	TwistMin   float64 // radians
	TwistMax   float64 // radians
}

// ConstraintType implements Params.
func (p *BallSocketParams) ConstraintType() Type { return BallSocket }

// TwistParams limit only the twist about an axis, leaving swing untouched.
type TwistParams struct {
	Axis     r3.Vector
	MinAngle float64 // radians
	MaxAngle float64 // radians
}

// ConstraintType implements Params.
func (p *TwistParams) ConstraintType() Type { return Twist }

// Constraint attaches one rotation limit to one joint. Weight blends between
// the unclamped and fully clamped rotation; at weight 1 the clamp is exact and
// idempotent.
type Constraint struct {
	ID      string
	JointID string
	Params  Params
	Weight  float64
	Enabled bool
}

// NewConstraint returns an enabled, full-weight constraint on the given joint.
func NewConstraint(id, jointID string, params Params) *Constraint {
	return &Constraint{ID: id, JointID: jointID, Params: params, Weight: 1, Enabled: true}
}

// Apply clamps the given local rotation according to the constraint
// parameters. The input is not mutated.
func (c *Constraint) Apply(rotation quat.Number) (quat.Number, error) {
	var clamped quat.Number
	switch p := c.Params.(type) {
	case *HingeParams:
		clamped = clampHinge(rotation, p)
	case *BallSocketParams:
		clamped = clampBallSocket(rotation, p)
	case *TwistParams:
		clamped = clampTwist(rotation, p)
	default:
		return rotation, errors.Errorf("unknown constraint params type %T", c.Params)
	}
	if c.Weight >= 1 {
		return clamped, nil
	}
	return spatialmath.Slerp(rotation, clamped, c.Weight), nil
}

func clampAngle(angle, minAngle, maxAngle float64) float64 {
	return math.Max(minAngle, math.Min(maxAngle, angle))
}

// clampHinge projects the rotation onto the hinge axis and rebuilds it purely
// from the clamped signed angle around that axis.
func clampHinge(rotation quat.Number, p *HingeParams) quat.Number {
	angle := spatialmath.TwistAngle(rotation, p.Axis)
	angle = clampAngle(angle, p.MinAngle, p.MaxAngle)
	return spatialmath.NewQuatFromAxisAngle(p.Axis, angle)
}

// clampBallSocket clamps the swing to the cone half-angle and the twist to its
// signed range, then recomposes swing * twist.
func clampBallSocket(rotation quat.Number, p *BallSocketParams) quat.Number {
	swing, _ := spatialmath.SwingTwist(rotation, p.TwistAxis)

	swingAA := spatialmath.QuatToR4AA(swing)
	swingAngle := math.Abs(swingAA.Theta)
	if swingAngle > p.SwingLimit {
		sign := 1.
		if swingAA.Theta < 0 {
			sign = -1
		}
		swing = spatialmath.NewQuatFromAxisAngle(swingAA.Axis(), sign*p.SwingLimit)
	}

	twistAngle := spatialmath.TwistAngle(rotation, p.TwistAxis)
	twistAngle = clampAngle(twistAngle, p.TwistMin, p.TwistMax)
	twist := spatialmath.NewQuatFromAxisAngle(p.TwistAxis, twistAngle)

	return spatialmath.Normalize(quat.Mul(swing, twist))
}

// clampTwist clamps only the twist component, recombining with the original
// swing.
func clampTwist(rotation quat.Number, p *TwistParams) quat.Number {
	swing, _ := spatialmath.SwingTwist(rotation, p.Axis)
	angle := spatialmath.TwistAngle(rotation, p.Axis)
	angle = clampAngle(angle, p.MinAngle, p.MaxAngle)
	twist := spatialmath.NewQuatFromAxisAngle(p.Axis, angle)
	return spatialmath.Normalize(quat.Mul(swing, twist))
}
