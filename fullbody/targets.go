package fullbody

import (
	"github.com/golang/geo/r3"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
)

// LookAtTarget aims the head at a world-space point. Weight scales how far the
// head turns toward it; 1 is a full turn.
type LookAtTarget struct {
	Position r3.Vector
	Weight   float64
}

// NewLookAtTarget returns a full-weight look-at target.
func NewLookAtTarget(position r3.Vector) *LookAtTarget {
	return &LookAtTarget{Position: position, Weight: 1}
}

// Targets is one frame of tracking input. Every field is optional: a nil limb
// target leaves that limb in its current pose, so a three-point VR setup
// (head plus two hands) drives only the stages it has data for.
//
// Finger curls are per-finger values in [0, 1], indexed in skeleton.Fingers
// order (thumb first); short slices curl only the fingers they cover.
type Targets struct {
	Hips         *r3.Vector
	Head         *LookAtTarget
	LeftHand     *skeleton.Target
	RightHand    *skeleton.Target
	LeftFoot     *skeleton.Target
	RightFoot    *skeleton.Target
	LeftFingers  []float64
	RightFingers []float64
}
