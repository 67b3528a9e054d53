package skeleton

import "github.com/pkg/errors"

// NewJointNotFoundError returns an error for a joint id absent from the
// skeleton.
func NewJointNotFoundError(id string) error {
	return errors.Errorf("joint %q not found in skeleton", id)
}

// NewChainNotFoundError returns an error for a chain id absent from the
// skeleton.
func NewChainNotFoundError(id string) error {
	return errors.Errorf("chain %q not found in skeleton", id)
}

// NewDuplicateIDError returns an error for a joint or chain id registered
// twice with the builder.
func NewDuplicateIDError(kind, id string) error {
	return errors.Errorf("duplicate %s id %q", kind, id)
}
