package config

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// SupportedGridFormat is the range of grid-file format versions this
// binary understands. Grounded on the teacher's firmware-version
// gating (calnex's use of hashicorp/go-version).
const SupportedGridFormat = ">= 1.0, < 2.0"

// CheckGridVersion parses a bare grid-format version string (the "x.y"
// of a "# version: x.y" header, e.g. "1.0") and returns an error if it
// falls outside SupportedGridFormat. An empty string (absent header) is treated as version 1.0 for backward compatibility
// with grid files that predate the header convention.
func CheckGridVersion(headerLine string) error {
	if headerLine == "" {
		headerLine = "1.0"
	}
	v, err := version.NewVersion(headerLine)
	if err != nil {
		return fmt.Errorf("parsing grid file version %q: %w", headerLine, err)
	}
	constraints, err := version.NewConstraint(SupportedGridFormat)
	if err != nil {
		return err
	}
	if !constraints.Check(v) {
		return fmt.Errorf("grid file version %s is not in supported range %s", v, SupportedGridFormat)
	}
	return nil
}
