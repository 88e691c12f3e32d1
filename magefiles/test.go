//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests with the race detector, which needs cgo.
func (Test) Unit() error {
	args := []string{"test", "-race", "-count=1"}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, "./...")
	if _, err := executeCmd("go", withArgs(args...), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}
