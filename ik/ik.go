// Package ik implements the chain solvers: FABRIK and CCD iterative solvers,
// the closed-form two-bone solver, and the orientation-only look-at solver.
// Solvers read a chain of joints and a target and return new transforms
// without mutating their inputs; callers copy results back into the skeleton.
package ik

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

const (
	defaultMaxIterations     = 10
	defaultPositionTolerance = 1e-3
	defaultCCDDamping        = 0.8
)

// defaultUp orients derived joint rotations; the engine is Y-up.
var defaultUp = r3.Vector{Y: 1}

// Result reports the outcome of one solver call. Reached is false when the
// solver ran out of iterations or the target was outside the chain's reach;
// the transforms then hold the best achievable pose, and callers can inspect
// PositionError to decide whether to accept it.
type Result struct {
	Reached         bool
	Iterations      int
	PositionError   float64
	RotationError   float64
	JointTransforms map[string]spatialmath.Transform
}

// Solver is one solving strategy over an ordered joint chain. The joint slice
// is root-to-end-effector order and is never mutated. A returned error means
// the solver was misconfigured for the chain, not that the target was
// unreachable.
type Solver interface {
	Solve(ctx context.Context, joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) (*Result, error)
}

// NewChainLengthError returns a configuration error for a solver handed a
// chain of the wrong shape.
func NewChainLengthError(solver string, want, got int) error {
	return errors.Errorf("%s solver requires %d joints, got %d", solver, want, got)
}

// chainPositions copies the joints' world positions.
func chainPositions(joints []*skeleton.Joint) []r3.Vector {
	positions := make([]r3.Vector, len(joints))
	for i, j := range joints {
		positions[i] = j.WorldTransform.Position
	}
	return positions
}

// chainBoneLengths returns the n-1 segment lengths of the chain, falling back
// to the current inter-joint distance for joints authored without one.
func chainBoneLengths(joints []*skeleton.Joint) []float64 {
	lengths := make([]float64, len(joints)-1)
	for i := 0; i < len(joints)-1; i++ {
		lengths[i] = joints[i].BoneLength
		if lengths[i] <= 0 {
			lengths[i] = joints[i+1].WorldTransform.Position.Sub(joints[i].WorldTransform.Position).Norm()
		}
	}
	return lengths
}

// effectiveTarget resolves the world position a solver should aim the last
// joint at, accounting for the chain's end-effector offset and the target's
// position weight.
func effectiveTarget(joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) r3.Vector {
	goal := target.Position.Sub(chain.EndEffectorOffset)
	w := target.PositionWeight
	if w <= 0 || w >= 1 {
		return goal
	}
	current := joints[len(joints)-1].WorldTransform.Position
	return spatialmath.Lerp(current, goal, w)
}

// solvedTransforms assembles the result transform map from solved positions.
// Joint rotations are re-derived from consecutive joint positions: each joint
// picks up the rotation taking its old bone direction onto the solved one, so
// frames stay consistent with the bind pose instead of being replaced
// wholesale. The last joint takes the target rotation, blended by rotation
// weight, when one is supplied.
func solvedTransforms(joints []*skeleton.Joint, positions []r3.Vector, target *skeleton.Target) map[string]spatialmath.Transform {
	n := len(joints)
	out := make(map[string]spatialmath.Transform, n)
	prevDelta := spatialmath.NewZeroRotation()
	for i, j := range joints {
		tf := j.WorldTransform
		tf.Position = positions[i]
		if i < n-1 {
			oldDir := joints[i+1].WorldTransform.Position.Sub(j.WorldTransform.Position)
			newDir := positions[i+1].Sub(positions[i])
			if oldDir.Norm() == 0 {
				tf.Rotation = spatialmath.LookRotation(newDir, defaultUp)
			} else {
				delta := spatialmath.RotationBetween(oldDir, newDir)
				tf.Rotation = spatialmath.Normalize(quat.Mul(delta, j.WorldTransform.Rotation))
				prevDelta = delta
			}
		} else {
			tf.Rotation = endEffectorRotation(j, prevDelta, target)
		}
		out[j.ID] = tf
	}
	return out
}

func endEffectorRotation(j *skeleton.Joint, prevDelta quat.Number, target *skeleton.Target) quat.Number {
	if target.Rotation != nil {
		return spatialmath.Slerp(j.WorldTransform.Rotation, *target.Rotation, target.RotationWeight)
	}
	// the end effector follows the bend of its parent segment
	return spatialmath.Normalize(quat.Mul(prevDelta, j.WorldTransform.Rotation))
}

// rotationError is the residual angle between the solved end-effector
// rotation and the target rotation, zero when no rotation was requested.
func rotationError(solved map[string]spatialmath.Transform, joints []*skeleton.Joint, target *skeleton.Target) float64 {
	if target.Rotation == nil {
		return 0
	}
	last := solved[joints[len(joints)-1].ID]
	return spatialmath.AngleBetweenQuats(last.Rotation, *target.Rotation)
}
