// Package fullbody composes the chain solvers into a whole-avatar pose
// pipeline: hips placement, head look-at, limb solves with pole synthesis and
// foot grounding, spine reconciliation, finger curls, and a final constraint
// pass. One Update call turns one frame of sparse tracking targets into a
// complete set of world transforms.
package fullbody

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/ik"
	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// Default tuning for the controller pipeline.
const (
	// DefaultHipOffset lifts the hips above the raw tracker position to
	// account for the tracker sitting on the waistband, in meters.
	DefaultHipOffset = 0.0
	// DefaultSpineBlend is how strongly spine joint rotations are pulled
	// toward the direction the column actually points.
	DefaultSpineBlend = 0.5
	// DefaultFingerCurlMax is the per-segment bend of a fully curled finger.
	DefaultFingerCurlMax = math.Pi / 2
)

// Options tunes the controller pipeline. The zero value of a numeric field
// selects its default; stage enable flags are explicit, see DefaultOptions.
type Options struct {
	// HipOffset is added to the hip target's height.
	HipOffset float64
	// GroundHeight is the floor plane; foot targets never go below it.
	GroundHeight float64
	// MaxIterations and PositionTolerance configure the iterative solver
	// used for arm and leg chains longer than three joints.
	MaxIterations     int
	PositionTolerance float64
	// SpineBlend in [0, 1] scales spine reconciliation; 0 disables it.
	SpineBlend float64
	// FingerCurlMax is the per-segment curl angle at full curl, in radians.
	FingerCurlMax float64
	// Smoothing is an exponential blend rate toward the solved pose, per
	// second. 0 applies each solve immediately.
	Smoothing float64

	EnableLookAt      bool
	EnableArms        bool
	EnableLegs        bool
	EnableSpine       bool
	EnableFingers     bool
	EnableConstraints bool
}

// DefaultOptions returns the options for a standing VR avatar with every
// stage enabled.
func DefaultOptions() Options {
	return Options{
		HipOffset:         DefaultHipOffset,
		SpineBlend:        DefaultSpineBlend,
		FingerCurlMax:     DefaultFingerCurlMax,
		EnableLookAt:      true,
		EnableArms:        true,
		EnableLegs:        true,
		EnableSpine:       true,
		EnableFingers:     true,
		EnableConstraints: true,
	}
}

// Controller runs the full-body pipeline over one skeleton. It owns the
// skeleton's pose state between frames and is not safe for concurrent use;
// run one controller per avatar.
type Controller struct {
	skel    *skeleton.Skeleton
	opts    Options
	twoBone *ik.TwoBone
	fabrik  *ik.FABRIK
	lookAt  *ik.LookAt
	logger  golog.Logger
}

// NewController returns a controller driving the given skeleton.
func NewController(skel *skeleton.Skeleton, opts Options, logger golog.Logger) (*Controller, error) {
	if skel == nil {
		return nil, errors.New("controller requires a skeleton")
	}
	if logger == nil {
		logger = golog.Global()
	}
	if opts.FingerCurlMax <= 0 {
		opts.FingerCurlMax = DefaultFingerCurlMax
	}
	return &Controller{
		skel:    skel,
		opts:    opts,
		twoBone: ik.NewTwoBoneSolver(logger),
		fabrik:  ik.NewFABRIKSolver(logger, opts.MaxIterations, opts.PositionTolerance),
		lookAt:  ik.NewLookAtSolver(logger),
		logger:  logger,
	}, nil
}

// Skeleton returns the skeleton the controller drives.
func (c *Controller) Skeleton() *skeleton.Skeleton {
	return c.skel
}

// Options returns the controller's options.
func (c *Controller) Options() Options {
	return c.opts
}

// Update advances the avatar one frame. Stages run in a fixed order so later
// stages see the results of earlier ones: hips first so every chain root is
// placed, then look-at, arms, legs, spine, fingers, and the constraint pass.
// Missing targets and unmapped bones skip their stage; the returned pose is
// whatever could be solved, alongside any per-stage errors.
func (c *Controller) Update(ctx context.Context, targets *Targets, dt float64) (map[string]spatialmath.Transform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if targets == nil {
		targets = &Targets{}
	}

	var prev map[string]spatialmath.Transform
	if c.opts.Smoothing > 0 && dt > 0 {
		prev = c.skel.WorldTransforms()
	}

	c.placeHips(targets.Hips)

	var errs error
	if c.opts.EnableLookAt && targets.Head != nil {
		errs = multierr.Append(errs, c.solveLookAt(ctx, targets.Head))
	}
	if c.opts.EnableArms {
		errs = multierr.Append(errs, c.solveLimb(ctx, skeleton.ArmChainID(skeleton.Left), skeleton.Left, targets.LeftHand))
		errs = multierr.Append(errs, c.solveLimb(ctx, skeleton.ArmChainID(skeleton.Right), skeleton.Right, targets.RightHand))
	}
	if c.opts.EnableLegs {
		errs = multierr.Append(errs, c.solveLimb(ctx, skeleton.LegChainID(skeleton.Left), skeleton.Left, c.groundedTarget(targets.LeftFoot)))
		errs = multierr.Append(errs, c.solveLimb(ctx, skeleton.LegChainID(skeleton.Right), skeleton.Right, c.groundedTarget(targets.RightFoot)))
	}
	if c.opts.EnableSpine && c.opts.SpineBlend > 0 {
		c.reconcileSpine()
	}

	c.skel.SyncLocalFromWorld()

	if c.opts.EnableFingers {
		c.applyFingerCurls(skeleton.Left, targets.LeftFingers)
		c.applyFingerCurls(skeleton.Right, targets.RightFingers)
	}
	if c.opts.EnableConstraints {
		errs = multierr.Append(errs, c.skel.Constraints().Apply(c.skel))
	}

	c.skel.SyncWorldFromLocal()

	if prev != nil {
		c.smoothToward(prev, dt)
	}

	return c.skel.WorldTransforms(), errs
}

// placeHips rigidly moves the hips subtree, which is the whole body, so the
// hips land at the tracker position plus the configured vertical offset.
func (c *Controller) placeHips(target *r3.Vector) {
	if target == nil {
		return
	}
	hips, ok := c.skel.BoneJoint(skeleton.BoneHips)
	if !ok {
		c.logger.Debug("skeleton has no hips bone mapped, skipping hip placement")
		return
	}
	goal := r3.Vector{X: target.X, Y: target.Y + c.opts.HipOffset, Z: target.Z}
	delta := goal.Sub(hips.WorldTransform.Position)
	c.skel.TranslateSubtree(hips.ID, spatialmath.Transform{Position: delta})
}

func (c *Controller) solveLookAt(ctx context.Context, target *LookAtTarget) error {
	chain, ok := c.skel.Chain(skeleton.LookAtChainID)
	if !ok {
		c.logger.Debug("skeleton has no look-at chain, skipping head aim")
		return nil
	}
	joints, err := c.skel.ChainJoints(chain)
	if err != nil {
		return errors.Wrap(err, "look-at")
	}
	t := skeleton.NewTarget(chain.ID, target.Position)
	t.RotationWeight = target.Weight
	result, err := c.lookAt.Solve(ctx, joints, chain, t)
	if err != nil {
		return errors.Wrap(err, "look-at")
	}
	c.applyChainResult(joints, result)
	return nil
}

// solveLimb solves one arm or leg chain toward its target, synthesizing a
// bend pole when the target carries none. Three-joint chains use the exact
// two-bone solver; longer chains fall back to FABRIK.
func (c *Controller) solveLimb(ctx context.Context, chainID string, side skeleton.Side, target *skeleton.Target) error {
	if target == nil {
		return nil
	}
	chain, ok := c.skel.Chain(chainID)
	if !ok {
		c.logger.Debugf("skeleton has no chain %q, skipping", chainID)
		return nil
	}
	joints, err := c.skel.ChainJoints(chain)
	if err != nil {
		return errors.Wrapf(err, "chain %q", chainID)
	}
	if target.Pole == nil {
		pole := c.defaultPole(chain, joints, side)
		t := *target
		t.Pole = &pole
		target = &t
	}

	var solver ik.Solver = c.twoBone
	if len(joints) != 3 {
		solver = c.fabrik
	}
	result, err := solver.Solve(ctx, joints, chain, target)
	if err != nil {
		return errors.Wrapf(err, "chain %q", chainID)
	}
	if !result.Reached {
		c.logger.Debugf("chain %q target out of reach, position error %f", chainID, result.PositionError)
	}
	c.applyChainResult(joints, result)
	return nil
}

// defaultPole synthesizes a bend hint for a limb with no authored pole:
// elbows point outward and behind the body, knees point forward.
func (c *Controller) defaultPole(chain *skeleton.Chain, joints []*skeleton.Joint, side skeleton.Side) r3.Vector {
	root := joints[0].WorldTransform.Position
	reach := 0.
	for i := 0; i < len(joints)-1; i++ {
		reach += joints[i].BoneLength
	}
	if reach <= 0 {
		reach = 1
	}
	sign := 1.
	if side == skeleton.Right {
		sign = -1
	}
	if chain.Type == skeleton.ChainLeg {
		return root.Add(r3.Vector{Z: reach})
	}
	return root.Add(r3.Vector{X: sign * 0.5 * reach, Z: -reach})
}

// groundedTarget clamps a foot target to the floor plane. The input target is
// copied, never mutated.
func (c *Controller) groundedTarget(target *skeleton.Target) *skeleton.Target {
	if target == nil || target.Position.Y >= c.opts.GroundHeight {
		return target
	}
	t := *target
	t.Position.Y = c.opts.GroundHeight
	return &t
}

// reconcileSpine pulls each spine joint's rotation toward the direction its
// bone actually points, relative to the bind pose, so the column's rotations
// track its positions after the hips and limbs have moved. The neck and head
// are left to the look-at stage.
func (c *Controller) reconcileSpine() {
	chain, ok := c.skel.Chain(skeleton.SpineChainID)
	if !ok {
		return
	}
	joints, err := c.skel.ChainJoints(chain)
	if err != nil || len(joints) < 3 {
		return
	}
	blend := math.Min(c.opts.SpineBlend, 1)
	for i := 0; i < len(joints)-2; i++ {
		j := joints[i]
		bindDir := joints[i+1].BindPose.Position.Sub(j.BindPose.Position)
		currentDir := joints[i+1].WorldTransform.Position.Sub(j.WorldTransform.Position)
		delta := spatialmath.RotationBetween(bindDir, currentDir)
		desired := spatialmath.Normalize(quat.Mul(delta, j.BindPose.Rotation))
		tf := j.WorldTransform
		tf.Rotation = spatialmath.Slerp(j.WorldTransform.Rotation, desired, blend)
		c.skel.SetWorldTransform(j.ID, tf)
	}
}

// applyFingerCurls writes finger segment local rotations from per-finger curl
// values. Curl is a hinge about the local Z axis; the sign mirrors across
// sides so both hands curl toward the palm.
func (c *Controller) applyFingerCurls(side skeleton.Side, curls []float64) {
	if len(curls) == 0 {
		return
	}
	sign := 1.
	if side == skeleton.Right {
		sign = -1
	}
	for i, finger := range skeleton.Fingers {
		if i >= len(curls) {
			break
		}
		curl := math.Max(0, math.Min(1, curls[i]))
		angle := -sign * curl * c.opts.FingerCurlMax
		rot := spatialmath.NewQuatFromAxisAngle(r3.Vector{Z: 1}, angle)
		for _, segment := range skeleton.FingerSegments {
			id, ok := c.skel.BoneJointID(skeleton.FingerBone(side, finger, segment))
			if !ok {
				continue
			}
			c.skel.SetLocalRotation(id, rot)
		}
	}
}

// applyChainResult copies a solver's transforms into the skeleton, then
// rigidly carries the end effector's descendants along with it so fingers
// follow a solved hand.
func (c *Controller) applyChainResult(joints []*skeleton.Joint, result *ik.Result) {
	end := joints[len(joints)-1]
	oldEnd := end.WorldTransform
	for _, j := range joints {
		if tf, ok := result.JointTransforms[j.ID]; ok {
			c.skel.SetWorldTransform(j.ID, tf)
		}
	}
	newEnd := end.WorldTransform
	deltaRot := spatialmath.Normalize(quat.Mul(newEnd.Rotation, quat.Conj(oldEnd.Rotation)))
	for _, id := range c.skel.DescendantIDs(end.ID) {
		if id == end.ID {
			continue
		}
		j, ok := c.skel.Joint(id)
		if !ok {
			continue
		}
		rel := j.WorldTransform.Position.Sub(oldEnd.Position)
		tf := j.WorldTransform
		tf.Position = newEnd.Position.Add(spatialmath.QuatRotateVector(deltaRot, rel))
		tf.Rotation = spatialmath.Normalize(quat.Mul(deltaRot, j.WorldTransform.Rotation))
		c.skel.SetWorldTransform(id, tf)
	}
}

// smoothToward exponentially blends the skeleton from the previous frame's
// pose toward the freshly solved one, then refreshes locals to match.
func (c *Controller) smoothToward(prev map[string]spatialmath.Transform, dt float64) {
	alpha := 1 - math.Exp(-c.opts.Smoothing*dt)
	for id, solved := range c.skel.WorldTransforms() {
		old, ok := prev[id]
		if !ok {
			continue
		}
		tf := solved
		tf.Position = spatialmath.Lerp(old.Position, solved.Position, alpha)
		tf.Rotation = spatialmath.Slerp(old.Rotation, solved.Rotation, alpha)
		c.skel.SetWorldTransform(id, tf)
	}
	c.skel.SyncLocalFromWorld()
}
