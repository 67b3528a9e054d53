package skeleton

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// ChainType labels what a chain is for, which lets the controller pick solver
// defaults (pole synthesis, grounding) per kind.
type ChainType string

// The supported chain types.
const (
	ChainArm     ChainType = "arm"
	ChainLeg     ChainType = "leg"
	ChainSpine   ChainType = "spine"
	ChainFinger  ChainType = "finger"
	ChainLookAt  ChainType = "look_at"
	ChainGeneric ChainType = "generic"
)

// Chain is an ordered run of joints from a chain root to an end effector that
// one solver call operates on. JointIDs are in root-to-end-effector order.
type Chain struct {
	ID                string
	JointIDs          []string
	Type              ChainType
	EndEffectorOffset r3.Vector
	Weight            float64
}

// Target drives one chain toward a goal. Rotation and Pole are optional; a
// nil Pole lets the controller synthesize a default bend hint.
type Target struct {
	ChainID        string
	Position       r3.Vector
	Rotation       *quat.Number
	PositionWeight float64
	RotationWeight float64
	Pole           *r3.Vector
	PoleWeight     float64
}

// NewTarget returns a full-weight position target for the given chain.
func NewTarget(chainID string, position r3.Vector) *Target {
	return &Target{
		ChainID:        chainID,
		Position:       position,
		PositionWeight: 1,
		RotationWeight: 1,
		PoleWeight:     1,
	}
}
