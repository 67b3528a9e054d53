package skeleton

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/brianonbased-dev/holoscript-ik/constraint"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// HumanoidBone names a slot in the canonical humanoid rig. Skeletons carry a
// mapping from these names to their own joint ids so the controller can find
// hips, head and limbs without caring about authoring conventions.
type HumanoidBone string

// Core humanoid bones. Finger bones are derived with FingerBone.
const (
	BoneHips          HumanoidBone = "hips"
	BoneSpine         HumanoidBone = "spine"
	BoneChest         HumanoidBone = "chest"
	BoneNeck          HumanoidBone = "neck"
	BoneHead          HumanoidBone = "head"
	BoneLeftShoulder  HumanoidBone = "left_shoulder"
	BoneLeftUpperArm  HumanoidBone = "left_upper_arm"
	BoneLeftLowerArm  HumanoidBone = "left_lower_arm"
	BoneLeftHand      HumanoidBone = "left_hand"
	BoneRightShoulder HumanoidBone = "right_shoulder"
	BoneRightUpperArm HumanoidBone = "right_upper_arm"
	BoneRightLowerArm HumanoidBone = "right_lower_arm"
	BoneRightHand     HumanoidBone = "right_hand"
	BoneLeftUpperLeg  HumanoidBone = "left_upper_leg"
	BoneLeftLowerLeg  HumanoidBone = "left_lower_leg"
	BoneLeftFoot      HumanoidBone = "left_foot"
	BoneRightUpperLeg HumanoidBone = "right_upper_leg"
	BoneRightLowerLeg HumanoidBone = "right_lower_leg"
	BoneRightFoot     HumanoidBone = "right_foot"
)

// Side distinguishes the left and right halves of the rig.
type Side string

// The two sides.
const (
	Left  Side = "left"
	Right Side = "right"
)

// Finger names the five fingers of a hand.
type Finger string

// The fingers, thumb first. Order matters: per-finger curl inputs are indexed
// in this order.
var Fingers = []Finger{"thumb", "index", "middle", "ring", "little"}

// FingerSegments are the three joints of a finger, knuckle to tip.
var FingerSegments = []string{"proximal", "intermediate", "distal"}

// FingerBone returns the humanoid bone name for one finger segment, e.g.
// "left_index_proximal".
func FingerBone(side Side, finger Finger, segment string) HumanoidBone {
	return HumanoidBone(fmt.Sprintf("%s_%s_%s", side, finger, segment))
}

// FingerChainID returns the canonical chain id for one finger.
func FingerChainID(side Side, finger Finger) string {
	return fmt.Sprintf("%s_%s", side, finger)
}

// ArmChainID and LegChainID return the canonical chain ids for a side.
func ArmChainID(side Side) string { return string(side) + "_arm" }

// LegChainID returns the canonical leg chain id for a side.
func LegChainID(side Side) string { return string(side) + "_leg" }

// SpineChainID and LookAtChainID are the fixed chain ids of the canonical rig.
const (
	SpineChainID  = "spine"
	LookAtChainID = "look_at"
)

// DefaultHumanoidHeight is the rig height used when callers pass a
// non-positive height to NewHumanoidSkeleton, in meters.
const DefaultHumanoidHeight = 1.7

// Default joint limits for the canonical rig, in radians. These are tuned for
// plausible avatar poses, not biomechanical accuracy; override by toggling or
// re-weighting the named constraints at runtime.
var (
	defaultElbowRange    = spatialmath.DegToRad(150)
	defaultKneeRange     = spatialmath.DegToRad(150)
	defaultShoulderSwing = spatialmath.DegToRad(85)
	defaultShoulderTwist = spatialmath.DegToRad(45)
	defaultHipSwing      = spatialmath.DegToRad(70)
	defaultHipTwist      = spatialmath.DegToRad(40)
	defaultNeckSwing     = spatialmath.DegToRad(40)
	defaultNeckTwist     = spatialmath.DegToRad(80)
)

// NewHumanoidSkeleton builds the canonical humanoid rig in a T-pose facing
// +Z with +Y up and the left side on +X, uniformly scaled so the head sits at
// roughly the given height in meters. The rig has a five-joint spine column,
// two three-joint arms and legs with shoulder links, and three-joint fingers,
// with ball-socket, hinge and twist constraints pre-attached.
func NewHumanoidSkeleton(height float64) (*Skeleton, error) {
	if height <= 0 {
		height = DefaultHumanoidHeight
	}
	h := height
	b := NewBuilder()

	ball := JointConfig{Type: JointBall, Stiffness: 0.5, Damping: 0.8}
	hinge := JointConfig{Type: JointHinge, Stiffness: 0.5, Damping: 0.8}
	fixed := JointConfig{Type: JointFixed}

	// spine column
	b.AddJoint("hips", "Hips", "", ball, r3.Vector{Y: 0.52 * h}, 0.06*h).
		AddJoint("spine", "Spine", "hips", ball, r3.Vector{Y: 0.58 * h}, 0.08*h).
		AddJoint("chest", "Chest", "spine", ball, r3.Vector{Y: 0.66 * h}, 0.10*h).
		AddJoint("neck", "Neck", "chest", ball, r3.Vector{Y: 0.76 * h}, 0.06*h).
		AddJoint("head", "Head", "neck", fixed, r3.Vector{Y: 0.82 * h}, 0)
	b.MapBone(BoneHips, "hips").
		MapBone(BoneSpine, "spine").
		MapBone(BoneChest, "chest").
		MapBone(BoneNeck, "neck").
		MapBone(BoneHead, "head")
	b.AddChain(SpineChainID, ChainSpine, "hips", "spine", "chest", "neck", "head")
	b.AddChain(LookAtChainID, ChainLookAt, "neck", "head")

	for _, side := range []Side{Left, Right} {
		sign := 1.
		if side == Right {
			sign = -1
		}
		addHumanoidArm(b, side, sign, h, ball, hinge)
		addHumanoidLeg(b, side, sign, h, ball, hinge)
		addHumanoidFingers(b, side, sign, h, hinge)
	}

	b.AddConstraint(constraint.NewConstraint("neck_limit", "neck", &constraint.BallSocketParams{
		TwistAxis:  r3.Vector{Y: 1},
		SwingLimit: defaultNeckSwing,
		TwistMin:   -defaultNeckTwist,
		TwistMax:   defaultNeckTwist,
	}))

	return b.Build()
}

func addHumanoidArm(b *Builder, side Side, sign, h float64, ball, hinge JointConfig) {
	prefix := string(side) + "_"
	shoulderY := 0.74 * h

	b.AddJoint(prefix+"shoulder", "Shoulder", "chest", ball, r3.Vector{X: sign * 0.07 * h, Y: shoulderY}, 0.04*h).
		AddJoint(prefix+"upper_arm", "UpperArm", prefix+"shoulder", ball, r3.Vector{X: sign * 0.11 * h, Y: shoulderY}, 0.16*h).
		AddJoint(prefix+"lower_arm", "LowerArm", prefix+"upper_arm", hinge, r3.Vector{X: sign * 0.27 * h, Y: shoulderY}, 0.15*h).
		AddJoint(prefix+"hand", "Hand", prefix+"lower_arm", ball, r3.Vector{X: sign * 0.42 * h, Y: shoulderY}, 0)

	if side == Left {
		b.MapBone(BoneLeftShoulder, prefix+"shoulder").
			MapBone(BoneLeftUpperArm, prefix+"upper_arm").
			MapBone(BoneLeftLowerArm, prefix+"lower_arm").
			MapBone(BoneLeftHand, prefix+"hand")
	} else {
		b.MapBone(BoneRightShoulder, prefix+"shoulder").
			MapBone(BoneRightUpperArm, prefix+"upper_arm").
			MapBone(BoneRightLowerArm, prefix+"lower_arm").
			MapBone(BoneRightHand, prefix+"hand")
	}

	b.AddChain(ArmChainID(side), ChainArm, prefix+"upper_arm", prefix+"lower_arm", prefix+"hand")

	b.AddConstraint(constraint.NewConstraint(prefix+"shoulder_limit", prefix+"upper_arm", &constraint.BallSocketParams{
		TwistAxis:  r3.Vector{X: sign},
		SwingLimit: defaultShoulderSwing,
		TwistMin:   -defaultShoulderTwist,
		TwistMax:   defaultShoulderTwist,
	}))
	// elbows bend forward only; the hinge sign mirrors across sides
	elbowMin, elbowMax := -defaultElbowRange, 0.
	if side == Right {
		elbowMin, elbowMax = 0., defaultElbowRange
	}
	b.AddConstraint(constraint.NewConstraint(prefix+"elbow_limit", prefix+"lower_arm", &constraint.HingeParams{
		Axis:     r3.Vector{Y: 1},
		MinAngle: elbowMin,
		MaxAngle: elbowMax,
	}))
}

func addHumanoidLeg(b *Builder, side Side, sign, h float64, ball, hinge JointConfig) {
	prefix := string(side) + "_"
	x := sign * 0.06 * h

	b.AddJoint(prefix+"upper_leg", "UpperLeg", "hips", ball, r3.Vector{X: x, Y: 0.50 * h}, 0.24*h).
		AddJoint(prefix+"lower_leg", "LowerLeg", prefix+"upper_leg", hinge, r3.Vector{X: x, Y: 0.26 * h}, 0.22*h).
		AddJoint(prefix+"foot", "Foot", prefix+"lower_leg", ball, r3.Vector{X: x, Y: 0.04 * h}, 0)

	if side == Left {
		b.MapBone(BoneLeftUpperLeg, prefix+"upper_leg").
			MapBone(BoneLeftLowerLeg, prefix+"lower_leg").
			MapBone(BoneLeftFoot, prefix+"foot")
	} else {
		b.MapBone(BoneRightUpperLeg, prefix+"upper_leg").
			MapBone(BoneRightLowerLeg, prefix+"lower_leg").
			MapBone(BoneRightFoot, prefix+"foot")
	}

	b.AddChain(LegChainID(side), ChainLeg, prefix+"upper_leg", prefix+"lower_leg", prefix+"foot")

	b.AddConstraint(constraint.NewConstraint(prefix+"hip_limit", prefix+"upper_leg", &constraint.BallSocketParams{
		TwistAxis:  r3.Vector{Y: -1},
		SwingLimit: defaultHipSwing,
		TwistMin:   -defaultHipTwist,
		TwistMax:   defaultHipTwist,
	}))
	b.AddConstraint(constraint.NewConstraint(prefix+"knee_limit", prefix+"lower_leg", &constraint.HingeParams{
		Axis:     r3.Vector{X: 1},
		MinAngle: 0,
		MaxAngle: defaultKneeRange,
	}))
}

func addHumanoidFingers(b *Builder, side Side, sign, h float64, hinge JointConfig) {
	handID := string(side) + "_hand"
	handX := sign * 0.42 * h
	handY := 0.74 * h

	// z spread fans the fingers; the thumb sits forward of the palm
	spread := map[Finger]float64{
		"thumb":  0.030 * h,
		"index":  0.015 * h,
		"middle": 0.005 * h,
		"ring":   -0.005 * h,
		"little": -0.015 * h,
	}
	segLengths := []float64{0.020 * h, 0.015 * h, 0.010 * h}

	for _, finger := range Fingers {
		parent := handID
		x := handX
		for i, segment := range FingerSegments {
			id := string(FingerBone(side, finger, segment))
			x += sign * segLengths[i]
			boneLen := 0.
			if i < len(segLengths)-1 {
				boneLen = segLengths[i+1]
			}
			b.AddJoint(id, "Finger", parent, hinge, r3.Vector{X: x, Y: handY, Z: spread[finger]}, boneLen)
			b.MapBone(FingerBone(side, finger, segment), id)
			parent = id
		}
		b.AddChain(FingerChainID(side, finger), ChainFinger,
			string(FingerBone(side, finger, "proximal")),
			string(FingerBone(side, finger, "intermediate")),
			string(FingerBone(side, finger, "distal")))
	}
}
