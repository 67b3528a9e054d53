package skeleton

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/brianonbased-dev/holoscript-ik/constraint"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

func simpleArm(t *testing.T) *Skeleton {
	t.Helper()
	cfg := JointConfig{Type: JointBall}
	s, err := NewBuilder().
		AddJoint("root", "Root", "", cfg, r3.Vector{}, 0.3).
		AddJoint("mid", "Mid", "root", cfg, r3.Vector{X: 0.3}, 0.25).
		AddJoint("end", "End", "mid", cfg, r3.Vector{X: 0.55}, 0).
		AddChain("arm", ChainArm, "root", "mid", "end").
		Build()
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestBuildSimpleChain(t *testing.T) {
	s := simpleArm(t)
	test.That(t, s.RootID(), test.ShouldEqual, "root")
	test.That(t, s.JointIDs(), test.ShouldResemble, []string{"end", "mid", "root"})

	chain, ok := s.Chain("arm")
	test.That(t, ok, test.ShouldBeTrue)
	joints, err := s.ChainJoints(chain)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(joints), test.ShouldEqual, 3)
	test.That(t, joints[1].BoneLength, test.ShouldAlmostEqual, 0.25)

	// world transforms start at the bind pose
	mid, ok := s.Joint("mid")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mid.WorldTransform.Position.X, test.ShouldAlmostEqual, 0.3)
}

func TestBuildValidation(t *testing.T) {
	cfg := JointConfig{}

	// missing parent
	_, err := NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddJoint("b", "", "ghost", cfg, r3.Vector{}, 0).
		Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing parent")

	// duplicate joint id
	_, err = NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddJoint("a", "", "a", cfg, r3.Vector{}, 0).
		Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate joint id")

	// no root
	_, err = NewBuilder().
		AddJoint("a", "", "b", cfg, r3.Vector{}, 0).
		AddJoint("b", "", "a", cfg, r3.Vector{}, 0).
		Build()
	test.That(t, err, test.ShouldNotBeNil)

	// multiple roots
	_, err = NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddJoint("b", "", "", cfg, r3.Vector{}, 0).
		Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "multiple roots")

	// chain over a missing joint
	_, err = NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddChain("c", ChainGeneric, "a", "ghost").
		Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing joint")

	// constraint on a missing joint
	_, err = NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddConstraint(constraint.NewConstraint("k", "ghost", &constraint.TwistParams{Axis: r3.Vector{Y: 1}})).
		Build()
	test.That(t, err, test.ShouldNotBeNil)

	// several problems are reported together
	_, err = NewBuilder().
		AddJoint("a", "", "", cfg, r3.Vector{}, 0).
		AddJoint("a", "", "a", cfg, r3.Vector{}, 0).
		AddChain("c", ChainGeneric).
		Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")
	test.That(t, err.Error(), test.ShouldContainSubstring, "no joints")
}

func TestSyncRoundTrip(t *testing.T) {
	s := simpleArm(t)

	// displace the chain in world space, then round-trip through locals
	s.SetWorldTransform("mid", spatialmath.NewTransform(
		r3.Vector{X: 0.2, Y: 0.2},
		spatialmath.NewQuatFromAxisAngle(r3.Vector{Z: 1}, 0.3),
	))
	s.SyncLocalFromWorld()
	before := s.WorldTransforms()
	s.SyncWorldFromLocal()
	after := s.WorldTransforms()
	for id := range before {
		test.That(t, spatialmath.TransformAlmostEqual(before[id], after[id], 1e-8), test.ShouldBeTrue)
	}
}

func TestDescendantsAndTranslate(t *testing.T) {
	s := simpleArm(t)
	test.That(t, s.DescendantIDs("mid"), test.ShouldResemble, []string{"mid", "end"})
	test.That(t, s.DescendantIDs("root"), test.ShouldResemble, []string{"root", "mid", "end"})

	delta := spatialmath.NewZeroTransform()
	delta.Position = r3.Vector{Y: 1}
	s.TranslateSubtree("mid", delta)

	root, _ := s.Joint("root")
	mid, _ := s.Joint("mid")
	end, _ := s.Joint("end")
	test.That(t, root.WorldTransform.Position.Y, test.ShouldAlmostEqual, 0)
	test.That(t, mid.WorldTransform.Position.Y, test.ShouldAlmostEqual, 1)
	test.That(t, end.WorldTransform.Position.Y, test.ShouldAlmostEqual, 1)
}

func TestResetToBindPose(t *testing.T) {
	s := simpleArm(t)
	s.TranslateSubtree("root", spatialmath.Transform{Position: r3.Vector{Z: 2}})
	s.ResetToBindPose()
	end, _ := s.Joint("end")
	test.That(t, end.WorldTransform.Position, test.ShouldResemble, r3.Vector{X: 0.55})
}
