package ik

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// twoBoneEps keeps the solve triangle away from fully collapsed or fully
// stretched configurations where the bend axis is undefined.
const twoBoneEps = 1e-6

// TwoBone is the closed-form analytical solver for chains of exactly three
// joints (root, mid, end), e.g. shoulder-elbow-wrist. One call is always
// exact; there is no iteration.
type TwoBone struct {
	logger golog.Logger
}

// NewTwoBoneSolver returns a two-bone solver.
func NewTwoBoneSolver(logger golog.Logger) *TwoBone {
	return &TwoBone{logger: logger}
}

// Solve implements Solver. Chains that are not exactly three joints are a
// configuration error.
func (t *TwoBone) Solve(ctx context.Context, joints []*skeleton.Joint, chain *skeleton.Chain, target *skeleton.Target) (*Result, error) {
	if len(joints) != 3 {
		return nil, NewChainLengthError("two-bone", 3, len(joints))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lengths := chainBoneLengths(joints)
	l1, l2 := lengths[0], lengths[1]
	root := joints[0].WorldTransform.Position
	goal := effectiveTarget(joints, chain, target)

	toTarget := goal.Sub(root)
	rawDist := toTarget.Norm()

	// clamp into a valid triangle
	minDist := math.Abs(l1-l2) + twoBoneEps
	maxDist := l1 + l2 - twoBoneEps
	dist := math.Max(minDist, math.Min(maxDist, rawDist))

	dir := spatialmath.SafeNormalize(toTarget)
	if dir.Norm() == 0 {
		dir = r3.Vector{Z: 1}
	}

	bendAxis := t.bendAxis(dir, root, target)

	// law of cosines gives the bend at the root
	cosRoot := (l1*l1 + dist*dist - l2*l2) / (2 * l1 * dist)
	cosRoot = math.Max(-1, math.Min(1, cosRoot))
	rootAngle := math.Acos(cosRoot)

	upperDir := spatialmath.QuatRotateVector(spatialmath.NewQuatFromAxisAngle(bendAxis, rootAngle), dir)
	mid := root.Add(upperDir.Mul(l1))
	end := root.Add(dir.Mul(dist))

	positions := []r3.Vector{root, mid, end}
	transforms := solvedTransforms(joints, positions, target)

	result := &Result{
		Reached:         rawDist >= minDist-twoBoneEps && rawDist <= maxDist+twoBoneEps,
		Iterations:      1,
		PositionError:   goal.Sub(end).Norm(),
		JointTransforms: transforms,
	}
	result.RotationError = rotationError(transforms, joints, target)
	return result, nil
}

// bendAxis picks the plane the chain bends in: perpendicular to both the
// target direction and the pole direction when a pole is given, otherwise a
// deterministic default perpendicular to the target direction.
func (t *TwoBone) bendAxis(dir, root r3.Vector, target *skeleton.Target) r3.Vector {
	if target.Pole != nil && target.PoleWeight > 0 {
		poleDir := spatialmath.SafeNormalize(target.Pole.Sub(root))
		axis := spatialmath.SafeNormalize(dir.Cross(poleDir))
		if axis.Norm() > 0 {
			return axis
		}
		if t.logger != nil {
			t.logger.Debug("two-bone pole vector is collinear with target direction, using default bend axis")
		}
	}
	return spatialmath.AnyPerpendicular(dir)
}
