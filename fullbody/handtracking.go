package fullbody

import (
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// HandJointSample is one tracked hand joint from the runtime. Names follow
// the convention "wrist" for the hand root and "<finger>_<segment>" for
// finger joints, e.g. "index_proximal".
type HandJointSample struct {
	Name     string
	Position r3.Vector
	Rotation quat.Number
}

// HandTrackingData is one frame of optical hand tracking for one hand. When
// IsTracking is false the samples are stale and must not be applied.
type HandTrackingData struct {
	Hand       skeleton.Side
	Joints     []HandJointSample
	IsTracking bool
}

// ApplyHandTracking overlays tracked hand joints onto a solved pose,
// replacing the wrist and finger transforms with the measured ones. Samples
// with unknown names, or names the skeleton has no bone for, are ignored;
// hand tracking degrades joint by joint rather than all or nothing.
func (c *Controller) ApplyHandTracking(data *HandTrackingData, pose map[string]spatialmath.Transform) {
	if data == nil || !data.IsTracking || pose == nil {
		return
	}
	for _, sample := range data.Joints {
		bone, ok := handBone(data.Hand, sample.Name)
		if !ok {
			continue
		}
		id, ok := c.skel.BoneJointID(bone)
		if !ok {
			continue
		}
		tf, ok := pose[id]
		if !ok {
			continue
		}
		tf.Position = sample.Position
		tf.Rotation = spatialmath.Normalize(sample.Rotation)
		pose[id] = tf
	}
}

// handBone maps a device joint name to a humanoid bone on the given side.
func handBone(side skeleton.Side, name string) (skeleton.HumanoidBone, bool) {
	if name == "wrist" {
		if side == skeleton.Left {
			return skeleton.BoneLeftHand, true
		}
		return skeleton.BoneRightHand, true
	}
	fingerName, segment, ok := strings.Cut(name, "_")
	if !ok {
		return "", false
	}
	var finger skeleton.Finger
	for _, f := range skeleton.Fingers {
		if string(f) == fingerName {
			finger = f
			break
		}
	}
	if finger == "" {
		return "", false
	}
	for _, s := range skeleton.FingerSegments {
		if s == segment {
			return skeleton.FingerBone(side, finger, segment), true
		}
	}
	return "", false
}
