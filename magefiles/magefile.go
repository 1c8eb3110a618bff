//go:build mage

// Package main contains Mage build targets for cookbook developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the store server expects.
var projectDirs = []string{
	"data",
	".secrets",
}

const (
	binDir   = "bin"
	binName  = "cookbook"
	cmdPkg   = "./cmd/cookbook"
	seedFile = "testdata/seed.yaml"
)

// Init creates the data and secrets directories and a starter config file.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("cookbook.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("cookbook.yaml", []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing cookbook.yaml: %w", err)
		}
		fmt.Println("   cookbook.yaml")
	}
	fmt.Println("Project initialized. Put your provider key in .secrets/spoonacular-api-key.")
	return nil
}

const starterConfig = `store:
  base_url: http://localhost:5000
provider:
  rate_per_second: 1
  search_limit: 12
server:
  addr: ":5000"
  data_dir: data
book:
  reset_on_mode_switch: true
logging:
  level: info
  format: text
`

// Build compiles the CLI binary into bin/, stamping the git commit when
// one is available.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := ""
	if rev, err := sh.Output("git", "rev-parse", "HEAD"); err == nil {
		ldflags = "-X main.commit=" + rev
	}
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Lint and Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Store groups targets that operate on the bundled store.
type Store mg.Namespace

// Seed imports testdata/seed.yaml into data/cookbook.db.
func (Store) Seed() error {
	mg.Deps(Init)
	return sh.RunV("go", "run", cmdPkg, "store", "import", seedFile)
}

// Serve runs the store server on :5000 with the seed data loaded.
func (Store) Serve() error {
	mg.Deps(Init)
	return sh.RunV("go", "run", cmdPkg, "serve", "--seed", seedFile)
}
