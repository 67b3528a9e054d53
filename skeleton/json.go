package skeleton

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/brianonbased-dev/holoscript-ik/constraint"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// ErrNoSkeletonInformation is used when there is no skeleton definition to
// parse.
var ErrNoSkeletonInformation = errors.New("no skeleton information")

// SkeletonConfigJSON represents all supported fields in a skeleton definition
// file. Positions are in world space in meters; all angle fields are in
// degrees.
type SkeletonConfigJSON struct {
	Name        string                `json:"name"`
	Joints      []JointConfigJSON     `json:"joints"`
	Chains      []ChainConfigJSON     `json:"chains,omitempty"`
	Constraints []ConstraintConfigJSON `json:"constraints,omitempty"`
	Bones       map[string]string     `json:"bones,omitempty"`
}

// JointConfigJSON is one joint entry in a skeleton definition.
type JointConfigJSON struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Parent     string     `json:"parent,omitempty"`
	Type       string     `json:"type,omitempty"`
	Position   [3]float64 `json:"position"`
	BoneLength float64    `json:"bone_length,omitempty"`
	Stiffness  float64    `json:"stiffness,omitempty"`
	Damping    float64    `json:"damping,omitempty"`
}

// ChainConfigJSON is one chain entry in a skeleton definition.
type ChainConfigJSON struct {
	ID     string   `json:"id"`
	Type   string   `json:"type,omitempty"`
	Joints []string `json:"joints"`
}

// ConstraintConfigJSON is one constraint entry in a skeleton definition. The
// type tag selects which of the angle fields are read.
type ConstraintConfigJSON struct {
	ID          string     `json:"id"`
	Joint       string     `json:"joint"`
	Type        string     `json:"type"`
	Axis        [3]float64 `json:"axis"`
	MinDeg      float64    `json:"min_deg,omitempty"`
	MaxDeg      float64    `json:"max_deg,omitempty"`
	SwingDeg    float64    `json:"swing_deg,omitempty"`
	TwistMinDeg float64    `json:"twist_min_deg,omitempty"`
	TwistMaxDeg float64    `json:"twist_max_deg,omitempty"`
	Weight      *float64   `json:"weight,omitempty"`
}

// UnmarshalSkeletonJSON parses the given JSON data into a built Skeleton.
func UnmarshalSkeletonJSON(jsonData []byte) (*Skeleton, error) {
	if len(jsonData) == 0 {
		return nil, ErrNoSkeletonInformation
	}
	cfg := &SkeletonConfigJSON{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal skeleton json")
	}
	return cfg.ParseConfig()
}

// ParseConfig feeds the parsed definition through a Builder, returning the
// built skeleton.
func (cfg *SkeletonConfigJSON) ParseConfig() (*Skeleton, error) {
	b := NewBuilder()
	for _, j := range cfg.Joints {
		jc := JointConfig{Type: JointBall, Stiffness: j.Stiffness, Damping: j.Damping}
		if j.Type != "" {
			jc.Type = JointType(j.Type)
		}
		b.AddJoint(j.ID, j.Name, j.Parent, jc, vecFromArray(j.Position), j.BoneLength)
	}
	for _, c := range cfg.Chains {
		ct := ChainGeneric
		if c.Type != "" {
			ct = ChainType(c.Type)
		}
		b.AddChain(c.ID, ct, c.Joints...)
	}
	for _, c := range cfg.Constraints {
		parsed, err := c.parse()
		if err != nil {
			return nil, err
		}
		b.AddConstraint(parsed)
	}
	for bone, jointID := range cfg.Bones {
		b.MapBone(HumanoidBone(bone), jointID)
	}
	return b.Build()
}

func (c *ConstraintConfigJSON) parse() (*constraint.Constraint, error) {
	var params constraint.Params
	switch constraint.Type(c.Type) {
	case constraint.Hinge:
		params = &constraint.HingeParams{
			Axis:     vecFromArray(c.Axis),
			MinAngle: spatialmath.DegToRad(c.MinDeg),
			MaxAngle: spatialmath.DegToRad(c.MaxDeg),
		}
	case constraint.BallSocket:
		params = &constraint.BallSocketParams{
			TwistAxis:  vecFromArray(c.Axis),
			SwingLimit: spatialmath.DegToRad(c.SwingDeg),
			TwistMin:   spatialmath.DegToRad(c.TwistMinDeg),
			TwistMax:   spatialmath.DegToRad(c.TwistMaxDeg),
		}
	case constraint.Twist:
		params = &constraint.TwistParams{
			Axis:     vecFromArray(c.Axis),
			MinAngle: spatialmath.DegToRad(c.MinDeg),
			MaxAngle: spatialmath.DegToRad(c.MaxDeg),
		}
	default:
		return nil, errors.Errorf("constraint %q has unknown type %q", c.ID, c.Type)
	}
	parsed := constraint.NewConstraint(c.ID, c.Joint, params)
	if c.Weight != nil {
		parsed.Weight = *c.Weight
	}
	return parsed, nil
}

func vecFromArray(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}
