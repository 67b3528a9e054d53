package fullbody

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/brianonbased-dev/holoscript-ik/skeleton"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

func TestApplyHandTracking(t *testing.T) {
	ctrl := newTestController(t, DefaultOptions())
	pose := ctrl.Skeleton().WorldTransforms()

	wristPos := r3.Vector{X: 0.5, Y: 1.2, Z: 0.3}
	indexPos := r3.Vector{X: 0.55, Y: 1.18, Z: 0.32}
	rot := spatialmath.NewQuatFromAxisAngle(r3.Vector{Y: 1}, 0.4)

	data := &HandTrackingData{
		Hand:       skeleton.Left,
		IsTracking: true,
		Joints: []HandJointSample{
			{Name: "wrist", Position: wristPos, Rotation: rot},
			{Name: "index_proximal", Position: indexPos, Rotation: rot},
			{Name: "palm", Position: r3.Vector{X: 9}, Rotation: rot},
		},
	}
	ctrl.ApplyHandTracking(data, pose)

	test.That(t, pose["left_hand"].Position, test.ShouldResemble, wristPos)
	test.That(t, spatialmath.QuaternionAlmostEqual(pose["left_hand"].Rotation, rot, 1e-9), test.ShouldBeTrue)
	indexID := string(skeleton.FingerBone(skeleton.Left, "index", "proximal"))
	test.That(t, pose[indexID].Position, test.ShouldResemble, indexPos)

	// the unknown "palm" joint moved nothing else
	for _, tf := range pose {
		test.That(t, tf.Position.X, test.ShouldBeLessThan, 5)
	}
}

func TestApplyHandTrackingNotTracking(t *testing.T) {
	ctrl := newTestController(t, DefaultOptions())
	pose := ctrl.Skeleton().WorldTransforms()
	before := pose["right_hand"]

	data := &HandTrackingData{
		Hand:       skeleton.Right,
		IsTracking: false,
		Joints:     []HandJointSample{{Name: "wrist", Position: r3.Vector{X: 9}}},
	}
	ctrl.ApplyHandTracking(data, pose)
	test.That(t, pose["right_hand"], test.ShouldResemble, before)
}

func TestHandBoneMapping(t *testing.T) {
	bone, ok := handBone(skeleton.Right, "wrist")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, bone, test.ShouldEqual, skeleton.BoneRightHand)

	bone, ok = handBone(skeleton.Left, "middle_distal")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, bone, test.ShouldEqual, skeleton.FingerBone(skeleton.Left, "middle", "distal"))

	_, ok = handBone(skeleton.Left, "middle_tip")
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = handBone(skeleton.Left, "palm")
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = handBone(skeleton.Left, "pinky_distal")
	test.That(t, ok, test.ShouldBeFalse)
}
