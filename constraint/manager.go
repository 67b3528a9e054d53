package constraint

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// JointStore is the view of a skeleton the manager needs: read and write
// access to joint local rotations by id.
type JointStore interface {
	LocalRotation(jointID string) (quat.Number, bool)
	SetLocalRotation(jointID string, rotation quat.Number)
}

// Manager owns the constraints of a skeleton and applies them in a fixed,
// explicit order: the order in which they were added. When a joint owns
// several constraints they compose sequentially in that same order, so
// attachment order is part of the configuration, not an artifact of map
// iteration.
type Manager struct {
	ordered []*Constraint
	byID    map[string]*Constraint
}

// NewManager returns an empty constraint manager.
func NewManager() *Manager {
	return &Manager{byID: map[string]*Constraint{}}
}

// Add appends a constraint to the application order. Ids must be unique.
func (m *Manager) Add(c *Constraint) error {
	if c == nil || c.ID == "" {
		return errors.New("constraint must have an id")
	}
	if _, ok := m.byID[c.ID]; ok {
		return errors.Errorf("duplicate constraint id %q", c.ID)
	}
	m.ordered = append(m.ordered, c)
	m.byID[c.ID] = c
	return nil
}

// Get returns the constraint with the given id, if present.
func (m *Manager) Get(id string) (*Constraint, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Constraints returns the constraints in application order. The returned
// slice must not be modified.
func (m *Manager) Constraints() []*Constraint {
	return m.ordered
}

// SetEnabled toggles a constraint at runtime, e.g. disabling leg limits while
// seated. Unknown ids are ignored.
func (m *Manager) SetEnabled(id string, enabled bool) {
	if c, ok := m.byID[id]; ok {
		c.Enabled = enabled
	}
}

// SetWeight adjusts a constraint's blend weight at runtime. Unknown ids are
// ignored.
func (m *Manager) SetWeight(id string, weight float64) {
	if c, ok := m.byID[id]; ok {
		c.Weight = weight
	}
}

// Apply runs every enabled constraint with positive weight against the store,
// in attachment order. Joints missing from the store are skipped; a partial
// clamp pass is preferred over aborting.
func (m *Manager) Apply(store JointStore) error {
	for _, c := range m.ordered {
		if !c.Enabled || c.Weight <= 0 {
			continue
		}
		rot, ok := store.LocalRotation(c.JointID)
		if !ok {
			continue
		}
		clamped, err := c.Apply(rot)
		if err != nil {
			return errors.Wrapf(err, "applying constraint %q", c.ID)
		}
		store.SetLocalRotation(c.JointID, clamped)
	}
	return nil
}
