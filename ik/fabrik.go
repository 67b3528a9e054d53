package ik

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// FABRIK is the forward-and-backward-reaching iterative solver. It works on
// any chain of two or more joints and preserves bone lengths every pass.
type FABRIK struct {
	maxIterations     int
	positionTolerance float64
	logger            golog.Logger
}

// NewFABRIKSolver returns a FABRIK solver. Non-positive iteration or
// tolerance arguments select the defaults.
func NewFABRIKSolver(logger golog.Logger, maxIterations int, positionTolerance float64) *FABRIK {
	if maxIterations < 1 {
		maxIterations = defaultMaxIterations
	}
	if positionTolerance <= 0 {
		positionTolerance = defaultPositionTolerance
	}
	return &FABRIK{maxIterations: maxIterations, positionTolerance: positionTolerance, logger: logger}
}

// Solve implements Solver.
func (f *FABRIK) Solve(ctx context.Context, joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) (*Result, error) {
	n := len(joints)
	if n < 2 {
		return nil, NewChainLengthError("fabrik", 2, n)
	}

	positions := chainPositions(joints)
	lengths := chainBoneLengths(joints)
	total := 0.
	for _, l := range lengths {
		total += l
	}

	goal := effectiveTarget(joints, chain, target)
	root := positions[0]

	result := &Result{}

	if root.Sub(goal).Norm() > total {
		// Unreachable: stretch the whole chain along the straight line from
		// root to target instead of iterating toward oscillation.
		dir := spatialmath.SafeNormalize(goal.Sub(root))
		for i := 1; i < n; i++ {
			positions[i] = positions[i-1].Add(dir.Mul(lengths[i-1]))
		}
		result.Reached = false
	} else {
		for it := 0; it < f.maxIterations; it++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			// forward reaching: pin the end effector to the goal, walk back
			positions[n-1] = goal
			for i := n - 2; i >= 0; i-- {
				dir := spatialmath.SafeNormalize(positions[i].Sub(positions[i+1]))
				positions[i] = positions[i+1].Add(dir.Mul(lengths[i]))
			}
			// backward reaching: pin the root, walk forward
			positions[0] = root
			for i := 0; i < n-1; i++ {
				dir := spatialmath.SafeNormalize(positions[i+1].Sub(positions[i]))
				positions[i+1] = positions[i].Add(dir.Mul(lengths[i]))
			}
			result.Iterations = it + 1
			if positions[n-1].Sub(goal).Norm() < f.positionTolerance {
				break
			}
		}
		if target.Pole != nil && target.PoleWeight > 0 {
			applyPole(positions, root, goal, *target.Pole, target.PoleWeight)
		}
		result.Reached = positions[n-1].Sub(goal).Norm() < f.positionTolerance
	}

	result.PositionError = positions[n-1].Sub(goal).Norm()
	result.JointTransforms = solvedTransforms(joints, positions, target)
	result.RotationError = rotationError(result.JointTransforms, joints, target)
	if !result.Reached && f.logger != nil {
		f.logger.Debugf("fabrik chain %q did not reach target, position error %f", chain.ID, result.PositionError)
	}
	return result, nil
}

// applyPole rotates the interior joints around the root-to-goal axis so their
// projections onto the plane perpendicular to that axis line up with the
// pole's projection, scaled by the pole weight. End points stay fixed.
func applyPole(positions []r3.Vector, root, goal, pole r3.Vector, weight float64) {
	axis := spatialmath.SafeNormalize(goal.Sub(root))
	if axis.Norm() == 0 {
		return
	}
	if weight > 1 {
		weight = 1
	}
	poleOffset := pole.Sub(root)
	for i := 1; i < len(positions)-1; i++ {
		jointOffset := positions[i].Sub(root)
		angle := spatialmath.SignedAngleAround(jointOffset, poleOffset, axis) * weight
		q := spatialmath.NewQuatFromAxisAngle(axis, angle)
		positions[i] = root.Add(spatialmath.QuatRotateVector(q, jointOffset))
	}
}
