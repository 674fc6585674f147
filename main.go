package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/postop/internal/engine"
)

// postop generates AVX-512 kernels with a fused binary post-op and can
// list, run or export them

const versionString = "postop 0.3.0"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// NOTE: Go's flag package stops parsing at the first non-flag argument,
	// so global flags go before the subcommand: postop -v emit -type bf16
	var verbose = flag.Bool("v", cfg.Verbose, "verbose mode (trace every emitted instruction)")
	var verboseLong = flag.Bool("verbose", cfg.Verbose, "verbose mode (trace every emitted instruction)")
	var archFlag = flag.String("arch", cfg.Arch.String(), "target architecture (only amd64)")
	var scratch = flag.Int("scratch", cfg.Scratch, "zmm register the injector may use as scratch")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	cfg.Verbose = *verbose || *verboseLong
	cfg.Scratch = *scratch
	if cfg.Arch, err = engine.ParseArch(*archFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "DEBUG main: target %s, scratch zmm%d, host %s\n", cfg.Arch, cfg.Scratch, engine.HostPlatform())
	}

	if err := RunCLI(flag.Args(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
