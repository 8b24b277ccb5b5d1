package config

import (
	"fmt"

	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/hashicorp/go-version"
)

func parseConstraint(requires string) (version.Constraints, error) {
	constraints, err := version.NewConstraint(requires)
	if err != nil {
		return nil, fmt.Errorf("invalid requires constraint %q: %w", requires, err)
	}
	return constraints, nil
}

// CheckCompatibility verifies that binaryVersion satisfies the config's requires
// constraint. Development builds whose version does not parse are always accepted.
func (c *Config) CheckCompatibility(binaryVersion string) error {
	if c.Requires == "" {
		return nil
	}

	constraints, err := parseConstraint(c.Requires)
	if err != nil {
		return err
	}

	v, err := version.NewVersion(binaryVersion)
	if err != nil {
		return nil
	}

	if !constraints.Check(v) {
		return errors.Wrapf(errors.ErrIncompatibleVersion, "version %s does not satisfy %q", v, c.Requires)
	}
	return nil
}
