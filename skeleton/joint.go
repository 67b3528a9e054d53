// Package skeleton models an articulated joint graph with named chains,
// humanoid bone mappings and attached rotation constraints. Topology is fixed
// once built; only transforms and constraint toggles mutate afterward.
package skeleton

import (
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// JointType describes the mechanical nature of a joint, used when attaching
// default constraints.
type JointType string

// The supported joint types.
const (
	JointBall  JointType = "ball"
	JointHinge JointType = "hinge"
	JointFixed JointType = "fixed"
)

// JointConfig carries per-joint solver tuning.
type JointConfig struct {
	Type      JointType
	Stiffness float64
	Damping   float64
}

// Joint is one node of the skeleton tree. ParentID is empty only for the
// root. BoneLength is the distance to the joint's single logical child along
// the chain it belongs to, and is zero for leaf joints.
type Joint struct {
	ID             string
	Name           string
	ParentID       string
	Config         JointConfig
	BindPose       spatialmath.Transform
	LocalTransform spatialmath.Transform
	WorldTransform spatialmath.Transform
	BoneLength     float64
}

// Clone returns a deep copy of the joint. Transforms are value types, so a
// field copy suffices.
func (j *Joint) Clone() *Joint {
	clone := *j
	return &clone
}
