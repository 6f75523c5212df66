package cmd

import (
	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/validation"
)

// validateOutputArg checks a user-supplied output path before anything is
// written to it.
func validateOutputArg(path string) error {
	if err := validation.ValidateOutputPath(path); err != nil {
		return errors.IO("invalid output path", err).WithContext("path", path)
	}
	return nil
}
