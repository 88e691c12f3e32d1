//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const binaryPath = "bin/lumen"

// Downloads the modules and builds the lumen binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	fmt.Printf("Building %s...\n", binaryPath)
	if _, err := executeCmd("go", withArgs("build", "-o", binaryPath, "./cmd/lumen"), withStream()); err != nil {
		return err
	}
	return nil
}
