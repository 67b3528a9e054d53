package skeleton

import (
	"sort"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/num/quat"

	"github.com/brianonbased-dev/holoscript-ik/constraint"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// Skeleton is a frozen-topology joint tree plus its chains, constraints and
// humanoid bone mapping. Joints are stored in a flat map keyed by id with
// parent back-references; order holds a topological ordering (parents before
// children) computed at build time so forward-kinematics passes never chase
// child pointers.
//
// A Skeleton has exactly one expected writer per frame. It provides no
// internal locking.
type Skeleton struct {
	joints      map[string]*Joint
	order       []string
	chains      map[string]*Chain
	constraints *constraint.Manager
	rootID      string
	humanoid    map[HumanoidBone]string
}

// RootID returns the id of the root joint.
func (s *Skeleton) RootID() string {
	return s.rootID
}

// Joint returns the joint with the given id, if present.
func (s *Skeleton) Joint(id string) (*Joint, bool) {
	j, ok := s.joints[id]
	return j, ok
}

// JointIDs returns all joint ids, sorted.
func (s *Skeleton) JointIDs() []string {
	ids := maps.Keys(s.joints)
	sort.Strings(ids)
	return ids
}

// Chain returns the chain with the given id, if present.
func (s *Skeleton) Chain(id string) (*Chain, bool) {
	c, ok := s.chains[id]
	return c, ok
}

// ChainIDs returns all chain ids, sorted.
func (s *Skeleton) ChainIDs() []string {
	ids := maps.Keys(s.chains)
	sort.Strings(ids)
	return ids
}

// ChainJoints resolves a chain's joint ids into the joints themselves,
// erroring on the first id missing from the skeleton.
func (s *Skeleton) ChainJoints(chain *Chain) ([]*Joint, error) {
	joints := make([]*Joint, 0, len(chain.JointIDs))
	for _, id := range chain.JointIDs {
		j, ok := s.joints[id]
		if !ok {
			return nil, NewJointNotFoundError(id)
		}
		joints = append(joints, j)
	}
	return joints, nil
}

// BoneJointID returns the joint id mapped to the given humanoid bone.
func (s *Skeleton) BoneJointID(bone HumanoidBone) (string, bool) {
	id, ok := s.humanoid[bone]
	return id, ok
}

// BoneJoint returns the joint mapped to the given humanoid bone.
func (s *Skeleton) BoneJoint(bone HumanoidBone) (*Joint, bool) {
	id, ok := s.humanoid[bone]
	if !ok {
		return nil, false
	}
	j, ok := s.joints[id]
	return j, ok
}

// Constraints returns the skeleton's constraint manager.
func (s *Skeleton) Constraints() *constraint.Manager {
	return s.constraints
}

// WorldTransforms returns a snapshot of every joint's world transform keyed
// by joint id.
func (s *Skeleton) WorldTransforms() map[string]spatialmath.Transform {
	out := make(map[string]spatialmath.Transform, len(s.joints))
	for id, j := range s.joints {
		out[id] = j.WorldTransform
	}
	return out
}

// SetWorldTransform overwrites one joint's world transform. Unknown ids are
// ignored; a partial pose is preferred over aborting an update.
func (s *Skeleton) SetWorldTransform(id string, tf spatialmath.Transform) {
	if j, ok := s.joints[id]; ok {
		j.WorldTransform = tf
	}
}

// LocalRotation implements constraint.JointStore.
func (s *Skeleton) LocalRotation(jointID string) (quat.Number, bool) {
	j, ok := s.joints[jointID]
	if !ok {
		return quat.Number{}, false
	}
	return j.LocalTransform.Rotation, true
}

// SetLocalRotation implements constraint.JointStore.
func (s *Skeleton) SetLocalRotation(jointID string, rotation quat.Number) {
	if j, ok := s.joints[jointID]; ok {
		j.LocalTransform.Rotation = rotation
	}
}

// DescendantIDs returns the given joint plus every joint below it, in
// topological order, by walking parent back-references.
func (s *Skeleton) DescendantIDs(rootID string) []string {
	isUnder := func(id string) bool {
		for id != "" {
			if id == rootID {
				return true
			}
			j, ok := s.joints[id]
			if !ok {
				return false
			}
			id = j.ParentID
		}
		return false
	}
	var out []string
	for _, id := range s.order {
		if isUnder(id) {
			out = append(out, id)
		}
	}
	return out
}

// TranslateSubtree rigidly shifts a joint and all its descendants by delta in
// world space.
func (s *Skeleton) TranslateSubtree(rootID string, delta spatialmath.Transform) {
	for _, id := range s.DescendantIDs(rootID) {
		j := s.joints[id]
		j.WorldTransform.Position = j.WorldTransform.Position.Add(delta.Position)
	}
}

// SyncLocalFromWorld rewrites every joint's local transform from the current
// world transforms, walking parents before children.
func (s *Skeleton) SyncLocalFromWorld() {
	for _, id := range s.order {
		j := s.joints[id]
		if j.ParentID == "" {
			j.LocalTransform = j.WorldTransform
			continue
		}
		parent := s.joints[j.ParentID]
		j.LocalTransform = spatialmath.ToLocal(parent.WorldTransform, j.WorldTransform)
	}
}

// SyncWorldFromLocal runs a forward-kinematics pass, recomputing every
// joint's world transform from its local transform and its parent's world
// transform.
func (s *Skeleton) SyncWorldFromLocal() {
	for _, id := range s.order {
		j := s.joints[id]
		if j.ParentID == "" {
			j.WorldTransform = j.LocalTransform
			continue
		}
		parent := s.joints[j.ParentID]
		j.WorldTransform = spatialmath.Compose(parent.WorldTransform, j.LocalTransform)
	}
}

// ResetToBindPose restores every joint's world transform to its bind pose and
// refreshes locals to match.
func (s *Skeleton) ResetToBindPose() {
	for _, j := range s.joints {
		j.WorldTransform = j.BindPose
	}
	s.SyncLocalFromWorld()
}
