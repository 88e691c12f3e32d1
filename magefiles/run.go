//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the binary and renders the demo scene. LUMEN_DEMO_ARGS adds flags,
// for example "--headless --frames 300".
func (Run) Demo() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run demo...")
	args := append([]string{"demo"}, strings.Fields(os.Getenv("LUMEN_DEMO_ARGS"))...)
	if _, err := executeCmd(binaryPath, withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
