//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const buildPackage = "github.com/armadaproject/uilatency/internal/uilatency/build"

var LocalBin = filepath.Join(os.Getenv("PWD"), "/bin")

func makeLocalBin() error {
	if _, err := os.Stat(LocalBin); os.IsNotExist(err) {
		err = os.MkdirAll(LocalBin, os.ModePerm)
		if err != nil {
			return err
		}
	}
	return nil
}

// Check dependent tools are present.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"chrome", chromeCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("one or more dependency checks failed")
	}
	return nil
}

// Build compiles uilatency into ./bin with version information baked in.
func Build() error {
	mg.Deps(goCheck, makeLocalBin)
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "UNKNOWN_GIT_COMMIT"
	}
	version := os.Getenv("UILATENCY_RELEASE_VERSION")
	if version == "" {
		version = "dev"
	}
	ldflags := strings.Join([]string{
		fmt.Sprintf("-X %s.ReleaseVersion=%s", buildPackage, version),
		fmt.Sprintf("-X %s.GitCommit=%s", buildPackage, commit),
		fmt.Sprintf("-X %s.GoVersion=%s", buildPackage, runtime.Version()),
		fmt.Sprintf("-X %s.BuildTime=%s", buildPackage, time.Now().UTC().Format(time.RFC3339)),
	}, " ")
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", filepath.Join(LocalBin, binaryWithExt("uilatency")), "./cmd/uilatency")
}

// Clean up after yourself
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "test_reports"} {
		os.RemoveAll(path)
	}
}

func goCheck() error {
	out, err := sh.Output("go", "version")
	if err != nil {
		return errors.WithMessage(err, "go is not installed")
	}
	if !strings.Contains(out, "go1.") {
		return errors.Errorf("unexpected go version output: %s", out)
	}
	return nil
}

// chromedp looks for these on PATH.
func chromeCheck() error {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return nil
		}
	}
	return errors.New("no Chrome or Chromium binary found on PATH")
}

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}
