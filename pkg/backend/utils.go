package backend

import (
	"fmt"

	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/repo-analysis/repokeep/pkg/utils"
)

// validateName rejects names that are not already in their sanitized form
// so a name can never resolve outside the scratch directory.
func validateName(name string) error {
	if err := utils.ValidateRepo(name); err != nil {
		return fmt.Errorf("%w: %w", proto.ErrInvalidRepo, err)
	}
	if utils.SanitizeRepo(name) != name {
		return fmt.Errorf("%w: %q", proto.ErrInvalidRepo, name)
	}

	return nil
}

// guard runs fn and turns a panic into an error so one misbehaving host
// call cannot take down a whole batch.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn()
}
