package cmd

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/ui"
	"github.com/dosanma1/crossdeck/pkg/xos"
)

//go:embed templates/crossdeck.yaml.tmpl
var templateFS embed.FS

var (
	initPackage string
	initBinary  string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a crossdeck.yaml in the current directory",
	Long: `Create a crossdeck.yaml scaffold with a native target for the
current host. Values not passed as flags are prompted for.

Examples:
  crossdeck init
  crossdeck init --package com.example.deck --binary deck`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPackage, "package", "", "Package identifier (e.g., com.example.deck)")
	initCmd.Flags().StringVar(&initBinary, "binary", "", "Cargo binary name")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing crossdeck.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, release.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", release.ConfigFileName)
	}

	pkg := initPackage
	if pkg == "" {
		pkg, err = ui.AskText("Package identifier (becomes the archive name)", "com.example."+filepath.Base(cwd), release.ValidatePackage)
		if err != nil {
			fmt.Println("Init cancelled.")
			return nil
		}
	}
	if err := release.ValidatePackage(pkg); err != nil {
		return err
	}

	binary := initBinary
	if binary == "" {
		binary, err = ui.AskText("Cargo binary name", filepath.Base(cwd), nil)
		if err != nil {
			fmt.Println("Init cancelled.")
			return nil
		}
	}

	hostID, hostTriple := hostTarget()

	tmpl, err := template.ParseFS(templateFS, "templates/crossdeck.yaml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse config template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Package    string
		Binary     string
		HostID     string
		HostTriple string
	}{pkg, binary, hostID, hostTriple}
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	if err := xos.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("✅ Created %s (%s host target)\n", release.ConfigFileName, hostID)
	fmt.Println("\nNext steps:")
	fmt.Println("  $ crossdeck validate")
	fmt.Println("  $ crossdeck release")
	return nil
}

// hostTarget maps the host platform to a target id and Rust triple.
func hostTarget() (string, string) {
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "darwin/arm64":
		return "macos-aarch64", "aarch64-apple-darwin"
	case "darwin/amd64":
		return "macos-x86_64", "x86_64-apple-darwin"
	case "linux/arm64":
		return "linux-aarch64", "aarch64-unknown-linux-gnu"
	case "windows/amd64":
		return "windows-x86_64", "x86_64-pc-windows-msvc"
	default:
		return "linux-x86_64", "x86_64-unknown-linux-gnu"
	}
}
