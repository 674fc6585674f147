package main

import (
	"fmt"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/postop/internal/engine"
)

// Config is the process configuration. Environment variables give the
// defaults and command line flags override them.
//
//	POSTOP_VERBOSE   trace every emitted instruction to stderr
//	POSTOP_ARCH      target architecture (only amd64 is supported)
//	POSTOP_SCRATCH   zmm register lent to the injector as scratch
type Config struct {
	Verbose bool
	Arch    engine.Arch
	Scratch int
}

func loadConfig() (Config, error) {
	arch, err := engine.ParseArch(env.Str("POSTOP_ARCH", "amd64"))
	if err != nil {
		return Config{}, fmt.Errorf("POSTOP_ARCH: %w", err)
	}
	cfg := Config{
		Verbose: env.Bool("POSTOP_VERBOSE"),
		Arch:    arch,
		Scratch: env.Int("POSTOP_SCRATCH", 2),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Arch != engine.ArchX86_64 {
		return fmt.Errorf("unsupported target architecture %s: only amd64 kernels can be generated", c.Arch)
	}
	// zmm1 holds the accumulator of the demo kernel, zmm0 is left to the caller
	if c.Scratch < 2 || c.Scratch > 31 {
		return fmt.Errorf("scratch register must be one of zmm2-zmm31, got zmm%d", c.Scratch)
	}
	return nil
}
