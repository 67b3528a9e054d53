package ik

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// CCD is the cyclic-coordinate-descent solver: it sweeps from the joint
// before the end effector back to the root, swinging each joint so the end
// effector moves toward the target. It converges in few iterations on short
// chains but needs a damping factor below one to avoid overshoot oscillation.
type CCD struct {
	maxIterations     int
	positionTolerance float64
	damping           float64
	logger            golog.Logger
}

// NewCCDSolver returns a CCD solver. Non-positive arguments select defaults;
// damping is clamped into (0, 1].
func NewCCDSolver(logger golog.Logger, maxIterations int, positionTolerance, damping float64) *CCD {
	if maxIterations < 1 {
		maxIterations = defaultMaxIterations
	}
	if positionTolerance <= 0 {
		positionTolerance = defaultPositionTolerance
	}
	if damping <= 0 || damping > 1 {
		damping = defaultCCDDamping
	}
	return &CCD{maxIterations: maxIterations, positionTolerance: positionTolerance, damping: damping, logger: logger}
}

// Solve implements Solver.
func (c *CCD) Solve(ctx context.Context, joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) (*Result, error) {
	n := len(joints)
	if n < 2 {
		return nil, NewChainLengthError("ccd", 2, n)
	}

	positions := chainPositions(joints)
	lengths := chainBoneLengths(joints)
	rotations := make([]quat.Number, n)
	for i, j := range joints {
		rotations[i] = j.WorldTransform.Rotation
	}

	goal := effectiveTarget(joints, chain, target)
	result := &Result{}

	for it := 0; it < c.maxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := n - 2; i >= 0; i-- {
			toEnd := spatialmath.SafeNormalize(positions[n-1].Sub(positions[i]))
			toGoal := spatialmath.SafeNormalize(goal.Sub(positions[i]))
			if toEnd.Norm() == 0 || toGoal.Norm() == 0 {
				continue
			}
			axis := toEnd.Cross(toGoal)
			if axis.Norm() < 1e-9 {
				continue
			}
			dot := math.Max(-1, math.Min(1, toEnd.Dot(toGoal)))
			angle := math.Acos(dot) * c.damping
			q := spatialmath.NewQuatFromAxisAngle(axis, angle)
			// swinging joint i carries everything downstream with it
			for j := i; j < n; j++ {
				if j > i {
					positions[j] = positions[i].Add(spatialmath.QuatRotateVector(q, positions[j].Sub(positions[i])))
				}
				rotations[j] = spatialmath.Normalize(quat.Mul(q, rotations[j]))
			}
		}
		// forward-kinematics pass re-derives positions at exact bone lengths
		for i := 0; i < n-1; i++ {
			dir := spatialmath.SafeNormalize(positions[i+1].Sub(positions[i]))
			positions[i+1] = positions[i].Add(dir.Mul(lengths[i]))
		}
		result.Iterations = it + 1
		if positions[n-1].Sub(goal).Norm() < c.positionTolerance {
			break
		}
	}

	result.PositionError = positions[n-1].Sub(goal).Norm()
	result.Reached = result.PositionError < c.positionTolerance

	out := make(map[string]spatialmath.Transform, n)
	for i, j := range joints {
		tf := j.WorldTransform
		tf.Position = positions[i]
		tf.Rotation = rotations[i]
		if i == n-1 && target.Rotation != nil {
			tf.Rotation = spatialmath.Slerp(j.WorldTransform.Rotation, *target.Rotation, target.RotationWeight)
		}
		out[j.ID] = tf
	}
	result.JointTransforms = out
	result.RotationError = rotationError(out, joints, target)
	if !result.Reached && c.logger != nil {
		c.logger.Debugf("ccd chain %q did not converge, position error %f", chain.ID, result.PositionError)
	}
	return result, nil
}
