package constraint

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

var (
	xAxis = r3.Vector{X: 1}
	yAxis = r3.Vector{Y: 1}
)

func TestHingeClamp(t *testing.T) {
	c := NewConstraint("elbow", "elbow_joint", &HingeParams{Axis: xAxis, MinAngle: 0, MaxAngle: math.Pi / 2})

	// over the max clamps to the max
	over := spatialmath.NewQuatFromAxisAngle(xAxis, 2.0)
	clamped, err := c.Apply(over)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.TwistAngle(clamped, xAxis), test.ShouldAlmostEqual, math.Pi/2)

	// under the min clamps to the min
	under := spatialmath.NewQuatFromAxisAngle(xAxis, -0.3)
	clamped, err = c.Apply(under)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.TwistAngle(clamped, xAxis), test.ShouldAlmostEqual, 0)

	// in range is untouched
	in := spatialmath.NewQuatFromAxisAngle(xAxis, 0.8)
	clamped, err = c.Apply(in)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.QuaternionAlmostEqual(clamped, in, 1e-8), test.ShouldBeTrue)
}

func TestHingeDiscardsOffAxis(t *testing.T) {
	c := NewConstraint("knee", "knee_joint", &HingeParams{Axis: xAxis, MinAngle: -math.Pi, MaxAngle: math.Pi})

	// a rotation with swing off the hinge axis loses that component entirely
	mixed := quat.Mul(
		spatialmath.NewQuatFromAxisAngle(yAxis, 0.5),
		spatialmath.NewQuatFromAxisAngle(xAxis, 0.6),
	)
	clamped, err := c.Apply(mixed)
	test.That(t, err, test.ShouldBeNil)
	expected := spatialmath.NewQuatFromAxisAngle(xAxis, 0.6)
	test.That(t, spatialmath.QuaternionAlmostEqual(clamped, expected, 1e-8), test.ShouldBeTrue)
}

func TestHingeIdempotent(t *testing.T) {
	c := NewConstraint("elbow", "elbow_joint", &HingeParams{Axis: xAxis, MinAngle: 0, MaxAngle: 1})
	once, err := c.Apply(spatialmath.NewQuatFromAxisAngle(xAxis, 2.5))
	test.That(t, err, test.ShouldBeNil)
	twice, err := c.Apply(once)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.QuaternionAlmostEqual(once, twice, 1e-8), test.ShouldBeTrue)
}

func TestBallSocketClamp(t *testing.T) {
	p := &BallSocketParams{
		TwistAxis:  yAxis,
		SwingLimit: math.Pi / 4,
		TwistMin:   -math.Pi / 6,
		TwistMax:   math.Pi / 6,
	}
	c := NewConstraint("shoulder", "shoulder_joint", p)

	// excessive swing and twist both get pulled into range
	q := quat.Mul(
		spatialmath.NewQuatFromAxisAngle(xAxis, 1.5),
		spatialmath.NewQuatFromAxisAngle(yAxis, 1.0),
	)
	clamped, err := c.Apply(q)
	test.That(t, err, test.ShouldBeNil)

	swing, _ := spatialmath.SwingTwist(clamped, yAxis)
	swingAngle := math.Abs(spatialmath.QuatToR4AA(swing).Theta)
	test.That(t, swingAngle, test.ShouldBeLessThanOrEqualTo, p.SwingLimit+1e-8)

	twistAngle := spatialmath.TwistAngle(clamped, yAxis)
	test.That(t, twistAngle, test.ShouldBeLessThanOrEqualTo, p.TwistMax+1e-8)
	test.That(t, twistAngle, test.ShouldBeGreaterThanOrEqualTo, p.TwistMin-1e-8)

	// in-range rotations pass through
	ok := quat.Mul(
		spatialmath.NewQuatFromAxisAngle(xAxis, 0.3),
		spatialmath.NewQuatFromAxisAngle(yAxis, 0.2),
	)
	clamped, err = c.Apply(ok)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.QuaternionAlmostEqual(clamped, ok, 1e-6), test.ShouldBeTrue)
}

func TestBallSocketIdempotent(t *testing.T) {
	c := NewConstraint("hip", "hip_joint", &BallSocketParams{
		TwistAxis:  yAxis,
		SwingLimit: 0.6,
		TwistMin:   -0.4,
		TwistMax:   0.4,
	})
	q := quat.Mul(
		spatialmath.NewQuatFromAxisAngle(r3.Vector{Z: 1}, 1.2),
		spatialmath.NewQuatFromAxisAngle(yAxis, -0.9),
	)
	once, err := c.Apply(q)
	test.That(t, err, test.ShouldBeNil)
	twice, err := c.Apply(once)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.QuaternionAlmostEqual(once, twice, 1e-8), test.ShouldBeTrue)
}

func TestTwistKeepsSwing(t *testing.T) {
	c := NewConstraint("neck", "neck_joint", &TwistParams{Axis: yAxis, MinAngle: -0.5, MaxAngle: 0.5})

	swingPart := spatialmath.NewQuatFromAxisAngle(xAxis, 0.4)
	q := quat.Mul(swingPart, spatialmath.NewQuatFromAxisAngle(yAxis, 1.3))
	clamped, err := c.Apply(q)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, spatialmath.TwistAngle(clamped, yAxis), test.ShouldAlmostEqual, 0.5)
	swing, _ := spatialmath.SwingTwist(clamped, yAxis)
	test.That(t, spatialmath.QuaternionAlmostEqual(swing, swingPart, 1e-8), test.ShouldBeTrue)
}

type fakeStore struct {
	rotations map[string]quat.Number
}

func (f *fakeStore) LocalRotation(id string) (quat.Number, bool) {
	q, ok := f.rotations[id]
	return q, ok
}

func (f *fakeStore) SetLocalRotation(id string, q quat.Number) {
	f.rotations[id] = q
}

func TestManagerOrderAndToggles(t *testing.T) {
	m := NewManager()

	// two constraints on the same joint compose in attachment order:
	// the hinge first flattens everything onto the x axis, then the twist
	// clamp narrows the angle.
	hinge := NewConstraint("c1", "j", &HingeParams{Axis: xAxis, MinAngle: -math.Pi, MaxAngle: math.Pi})
	tw := NewConstraint("c2", "j", &TwistParams{Axis: xAxis, MinAngle: -0.2, MaxAngle: 0.2})
	test.That(t, m.Add(hinge), test.ShouldBeNil)
	test.That(t, m.Add(tw), test.ShouldBeNil)
	test.That(t, m.Add(NewConstraint("c1", "j", tw.Params)), test.ShouldNotBeNil)

	store := &fakeStore{rotations: map[string]quat.Number{
		"j": quat.Mul(
			spatialmath.NewQuatFromAxisAngle(yAxis, 0.8),
			spatialmath.NewQuatFromAxisAngle(xAxis, 1.0),
		),
	}}
	test.That(t, m.Apply(store), test.ShouldBeNil)
	got := store.rotations["j"]
	expected := spatialmath.NewQuatFromAxisAngle(xAxis, 0.2)
	test.That(t, spatialmath.QuaternionAlmostEqual(got, expected, 1e-8), test.ShouldBeTrue)

	// disabled constraints are skipped
	m.SetEnabled("c1", false)
	m.SetEnabled("c2", false)
	orig := spatialmath.NewQuatFromAxisAngle(yAxis, 1.1)
	store.rotations["j"] = orig
	test.That(t, m.Apply(store), test.ShouldBeNil)
	test.That(t, store.rotations["j"], test.ShouldResemble, orig)

	// zero weight behaves like disabled
	m.SetEnabled("c1", true)
	m.SetWeight("c1", 0)
	test.That(t, m.Apply(store), test.ShouldBeNil)
	test.That(t, store.rotations["j"], test.ShouldResemble, orig)

	// constraints on joints missing from the store are skipped quietly
	test.That(t, m.Add(NewConstraint("c3", "missing", tw.Params)), test.ShouldBeNil)
	test.That(t, m.Apply(store), test.ShouldBeNil)
}
