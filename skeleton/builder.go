package skeleton

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/brianonbased-dev/holoscript-ik/constraint"
	"github.com/brianonbased-dev/holoscript-ik/spatialmath"
)

// Builder accumulates joints, chains, constraints and bone mappings, then
// freezes them into a Skeleton. It is the only supported way to produce one;
// topology cannot be mutated after Build.
type Builder struct {
	joints      []*Joint
	chains      []*Chain
	constraints []*constraint.Constraint
	humanoid    map[HumanoidBone]string
}

// NewBuilder returns an empty skeleton builder.
func NewBuilder() *Builder {
	return &Builder{humanoid: map[HumanoidBone]string{}}
}

// AddJoint registers a joint. The bind position is in world space; parentID
// is empty for the root. boneLength is the distance to the joint's single
// logical child along its chain, zero for leaves.
func (b *Builder) AddJoint(id, name, parentID string, cfg JointConfig, bindPosition r3.Vector, boneLength float64) *Builder {
	bind := spatialmath.NewZeroTransform()
	bind.Position = bindPosition
	b.joints = append(b.joints, &Joint{
		ID:             id,
		Name:           name,
		ParentID:       parentID,
		Config:         cfg,
		BindPose:       bind,
		LocalTransform: spatialmath.NewZeroTransform(),
		WorldTransform: bind,
		BoneLength:     boneLength,
	})
	return b
}

// MapBone associates a humanoid bone name with a joint id.
func (b *Builder) MapBone(bone HumanoidBone, jointID string) *Builder {
	b.humanoid[bone] = jointID
	return b
}

// AddChain registers a named chain over the given joint ids, in
// root-to-end-effector order.
func (b *Builder) AddChain(id string, chainType ChainType, jointIDs ...string) *Builder {
	b.chains = append(b.chains, &Chain{
		ID:       id,
		JointIDs: jointIDs,
		Type:     chainType,
		Weight:   1,
	})
	return b
}

// AddConstraint registers a constraint. Constraints are applied in the order
// they are added here; when one joint owns several, they compose sequentially
// in that order.
func (b *Builder) AddConstraint(c *constraint.Constraint) *Builder {
	b.constraints = append(b.constraints, c)
	return b
}

// Build validates the accumulated topology and freezes it into a Skeleton.
// All validation problems are reported together.
func (b *Builder) Build() (*Skeleton, error) {
	var err error

	joints := make(map[string]*Joint, len(b.joints))
	rootID := ""
	for _, j := range b.joints {
		if j.ID == "" {
			err = multierr.Append(err, errors.New("joint must have an id"))
			continue
		}
		if _, ok := joints[j.ID]; ok {
			err = multierr.Append(err, NewDuplicateIDError("joint", j.ID))
			continue
		}
		joints[j.ID] = j.Clone()
		if j.ParentID == "" {
			if rootID != "" {
				err = multierr.Append(err, errors.Errorf("multiple roots: %q and %q", rootID, j.ID))
			}
			rootID = j.ID
		}
	}
	if rootID == "" && len(b.joints) > 0 {
		err = multierr.Append(err, errors.New("no root joint (one joint must have no parent)"))
	}
	for _, j := range joints {
		if j.ParentID == "" {
			continue
		}
		if _, ok := joints[j.ParentID]; !ok {
			err = multierr.Append(err, errors.Errorf("joint %q references missing parent %q", j.ID, j.ParentID))
		}
	}

	order, orderErr := topologicalOrder(joints, rootID)
	if orderErr != nil {
		err = multierr.Append(err, orderErr)
	}

	chains := make(map[string]*Chain, len(b.chains))
	for _, c := range b.chains {
		if _, ok := chains[c.ID]; ok {
			err = multierr.Append(err, NewDuplicateIDError("chain", c.ID))
			continue
		}
		if len(c.JointIDs) == 0 {
			err = multierr.Append(err, errors.Errorf("chain %q has no joints", c.ID))
			continue
		}
		for _, id := range c.JointIDs {
			if _, ok := joints[id]; !ok {
				err = multierr.Append(err, errors.Errorf("chain %q references missing joint %q", c.ID, id))
			}
		}
		chains[c.ID] = c
	}

	manager := constraint.NewManager()
	for _, c := range b.constraints {
		if _, ok := joints[c.JointID]; !ok {
			err = multierr.Append(err, errors.Errorf("constraint %q references missing joint %q", c.ID, c.JointID))
			continue
		}
		err = multierr.Append(err, manager.Add(c))
	}

	humanoid := make(map[HumanoidBone]string, len(b.humanoid))
	for bone, id := range b.humanoid {
		if _, ok := joints[id]; !ok {
			err = multierr.Append(err, errors.Errorf("bone %q maps to missing joint %q", bone, id))
			continue
		}
		humanoid[bone] = id
	}

	if err != nil {
		return nil, err
	}

	s := &Skeleton{
		joints:      joints,
		order:       order,
		chains:      chains,
		constraints: manager,
		rootID:      rootID,
		humanoid:    humanoid,
	}
	s.SyncLocalFromWorld()
	return s, nil
}

// topologicalOrder returns joint ids with every parent before its children,
// erroring if the parent edges contain a cycle.
func topologicalOrder(joints map[string]*Joint, rootID string) ([]string, error) {
	children := map[string][]string{}
	for _, j := range joints {
		if j.ParentID != "" {
			children[j.ParentID] = append(children[j.ParentID], j.ID)
		}
	}
	order := make([]string, 0, len(joints))
	queue := []string{}
	if _, ok := joints[rootID]; ok {
		queue = append(queue, rootID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		kids := children[id]
		// deterministic traversal regardless of map iteration
		sort.Strings(kids)
		queue = append(queue, kids...)
	}
	if len(order) != len(joints) {
		return order, errors.New("joint graph is not a tree rooted at the root joint (cycle or orphan subtree)")
	}
	return order, nil
}
