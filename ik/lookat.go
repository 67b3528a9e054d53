package ik

import (
	"context"

	"github.com/edaniels/golog"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// LookAt is the orientation-only solver for one- or two-joint chains such as
// neck-head. It never moves joints, and since there is no position objective
// it always reports reached.
type LookAt struct {
	logger golog.Logger
}

// NewLookAtSolver returns a look-at solver.
func NewLookAtSolver(logger golog.Logger) *LookAt {
	return &LookAt{logger: logger}
}

// Solve implements Solver.
func (l *LookAt) Solve(ctx context.Context, joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) (*Result, error) {
	n := len(joints)
	if n < 1 || n > 2 {
		return nil, NewChainLengthError("look-at", 2, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	last := joints[n-1]
	dir := target.Position.Sub(last.WorldTransform.Position)
	desired := spatialmath.LookRotation(dir, defaultUp)

	weight := target.RotationWeight
	if weight > 1 {
		weight = 1
	}

	out := make(map[string]spatialmath.Transform, n)
	for i, j := range joints {
		// earlier joints take a smaller share of the turn
		fraction := weight * float64(i+1) / float64(n)
		tf := j.WorldTransform
		tf.Rotation = spatialmath.Slerp(j.WorldTransform.Rotation, desired, fraction)
		out[j.ID] = tf
	}

	return &Result{
		Reached:         true,
		Iterations:      1,
		RotationError:   spatialmath.AngleBetweenQuats(out[last.ID].Rotation, desired),
		JointTransforms: out,
	}, nil
}
