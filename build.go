//go:build ignore

// build.go - SalesPulse build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, server, report, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "0.1.0"
	module  = "salespulse"
	distDir = "dist"
)

// binaries maps a directory under cmd/ to its output name.
var binaries = map[string]string{
	"salespulse": "salespulse",
	"report":     "salespulse-report",
}

var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	start := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*verbose)
	case "server":
		err = buildBinary("salespulse", *verbose)
	case "report":
		err = buildBinary("report", *verbose)
	case "test":
		err = runGo(*verbose, "test", "-race", "./...")
	case "clean":
		err = os.RemoveAll(distDir)
	default:
		fmt.Println("Targets: all, server, report, test, clean")
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func buildAll(verbose bool) error {
	for name := range binaries {
		if err := buildBinary(name, verbose); err != nil {
			return err
		}
	}
	return nil
}

func buildBinary(name string, verbose bool) error {
	out := binaries[name]
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	outputPath := filepath.Join(distDir, out)
	printInfo(fmt.Sprintf("Building %s...", name))

	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.Version=%s -X %s/internal/app.BuildTime=%s",
		module, version, module, time.Now().UTC().Format(time.RFC3339))

	if err := runGo(verbose, "build", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", out, float64(info.Size())/1024/1024))
	}
	return nil
}

func runGo(verbose bool, args ...string) error {
	cmd := exec.Command("go", args...)
	if verbose {
		fmt.Printf("go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
