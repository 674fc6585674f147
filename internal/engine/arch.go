package engine

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Arch is the instruction set kernels are generated for. Only x86-64 with
// AVX-512 is a target; ArchUnknown stands for every other machine.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
)

// ErrUnsupportedArch is returned for any target other than x86-64
var ErrUnsupportedArch = errors.New("unsupported target architecture")

var x86Names = []string{"amd64", "x86_64", "x86-64"}

// unixLike lists the GOOS values where generated code can be mapped
// executable and called
var unixLike = []string{"linux", "darwin", "freebsd"}

func (a Arch) String() string {
	if a == ArchX86_64 {
		return "x86_64"
	}
	return "unknown"
}

// ParseArch accepts the usual spellings of x86-64 and rejects everything
// else, so a wrong --arch or POSTOP_ARCH fails before any code is generated.
func ParseArch(s string) (Arch, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if slices.Contains(x86Names, name) {
		return ArchX86_64, nil
	}
	return ArchUnknown, fmt.Errorf("%w: %q, only amd64 kernels can be generated%s",
		ErrUnsupportedArch, s, DidYouMean(name, x86Names))
}

// Platform describes the machine the process runs on
type Platform struct {
	Arch   Arch
	GOARCH string
	GOOS   string
}

// HostPlatform returns the platform of the running process
func HostPlatform() Platform {
	arch, _ := ParseArch(runtime.GOARCH)
	return Platform{Arch: arch, GOARCH: runtime.GOARCH, GOOS: runtime.GOOS}
}

func (p Platform) String() string {
	return p.GOARCH + "-" + p.GOOS
}

// CanExecute reports whether kernels generated for target can run here
func (p Platform) CanExecute(target Arch) bool {
	return target == ArchX86_64 && p.Arch == target && slices.Contains(unixLike, p.GOOS)
}
