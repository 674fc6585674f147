package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/postop/injector"
	"github.com/xyproto/postop/internal/engine"
	"github.com/xyproto/postop/jit"
	"github.com/xyproto/postop/kernel"
	"github.com/xyproto/postop/quant"
)

// cli.go - subcommands of the postop tool
//
// - postop emit [flags]          print the listing of a demo kernel
// - postop run [flags]           build the demo kernel and execute it
// - postop gen [-o file]         write a Go file with pre-built kernels
// - postop cpu                   show which kernels this CPU can run
// - postop quant ARCH NAME DIMS  show how a tensor is quantized and fused

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Args   []string
	Config Config
	Out    io.Writer
}

// RunCLI dispatches to the subcommand named by args[0]
func RunCLI(args []string, cfg Config) error {
	return runCLI(args, cfg, os.Stdout)
}

func runCLI(args []string, cfg Config, out io.Writer) error {
	ctx := &CommandContext{Args: args, Config: cfg, Out: out}
	if len(args) == 0 {
		return cmdHelp(ctx)
	}

	switch args[0] {
	case "emit":
		return cmdEmit(ctx, args[1:])
	case "run":
		return cmdRun(ctx, args[1:])
	case "gen":
		return cmdGen(ctx, args[1:])
	case "cpu":
		return cmdCPU(ctx)
	case "quant":
		return cmdQuant(ctx, args[1:])
	case "help", "--help", "-h":
		return cmdHelp(ctx)
	case "version", "--version":
		fmt.Fprintln(ctx.Out, versionString)
		return nil
	default:
		commands := []string{"emit", "run", "gen", "cpu", "quant", "help", "version"}
		return fmt.Errorf("unknown command: %s%s\n\nRun 'postop help' for usage information",
			args[0], engine.DidYouMean(args[0], commands))
	}
}

// kernelOptions are the flags shared by emit and run
type kernelOptions struct {
	Spec kernel.Spec
	Hex  bool
}

func parseKernelFlags(ctx *CommandContext, name string, args []string) (kernelOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	typeFlag := fs.String("type", "f32", "operand data type (f32, s32, s8, u8, bf16, f16)")
	opFlag := fs.String("op", "add", "operator (add, sub, mul, min, max)")
	bcast := fs.Bool("broadcast", false, "use the first operand element for every lane")
	lanes := fs.Int("lanes", kernel.Lanes, "number of leading lanes the post-op applies to")
	masked := fs.Bool("masked", false, "always use a lane mask, so -lanes 0 masks every lane off")
	addrFlag := fs.String("addr", "param-slot", "operand address kind (direct, static, param-slot, base-offset)")
	hex := fs.Bool("hex", false, "print only the code bytes")
	if err := fs.Parse(args); err != nil {
		return kernelOptions{}, err
	}

	dt, err := injector.ParseDataType(*typeFlag)
	if err != nil {
		return kernelOptions{}, err
	}
	op, err := injector.ParseOpKind(*opFlag)
	if err != nil {
		return kernelOptions{}, err
	}
	addr, err := injector.ParseAddressKind(*addrFlag)
	if err != nil {
		return kernelOptions{}, err
	}
	s := kernel.Spec{
		Op:        op,
		DataType:  dt,
		Broadcast: *bcast,
		Active:    *lanes,
		Masked:    *masked,
		Address:   addr,
		Scratch:   ctx.Config.Scratch,
	}
	if addr == injector.AddrStatic && name == "emit" {
		// a placeholder; run substitutes the real buffer
		s.Static = 0x1000
	}
	if ctx.Config.Verbose {
		s.Trace = os.Stderr
	}
	return kernelOptions{Spec: s, Hex: *hex}, nil
}

// cmdEmit prints the generated instructions
func cmdEmit(ctx *CommandContext, args []string) error {
	opts, err := parseKernelFlags(ctx, "emit", args)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	s := opts.Spec
	k, err := kernel.Build(s)
	if err != nil {
		return err
	}
	if opts.Hex {
		fmt.Fprintf(ctx.Out, "% x\n", k.Code)
		return nil
	}
	fmt.Fprintf(ctx.Out, "; %s, %d bytes, needs %s\n", s, len(k.Code), s.Required())
	for _, ins := range k.Listing {
		fmt.Fprintln(ctx.Out, ins)
	}
	return nil
}

// cmdRun executes the kernel on dst = [1..16] and operand = [10, 20, ...]
func cmdRun(ctx *CommandContext, args []string) error {
	opts, err := parseKernelFlags(ctx, "run", args)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	s := opts.Spec
	if !engine.HostPlatform().CanExecute(ctx.Config.Arch) || !jit.CanExecute() {
		return fmt.Errorf("%w: host is %s", jit.ErrExecUnsupported, engine.HostPlatform())
	}
	if missing := jit.HostFeatures().Missing(s.Required()); missing != 0 {
		return fmt.Errorf("this CPU lacks %s", missing)
	}

	operand, err := demoOperand(s.DataType)
	if err != nil {
		return err
	}
	b, err := kernel.NewArgs(len(operand), false)
	if err != nil {
		return err
	}
	defer b.Close()
	copy(b.Operand, operand)
	copy(b.Args.Inline[:], operand)
	for i := range b.Dst {
		b.Dst[i] = float32(i + 1)
	}
	if s.Address == injector.AddrStatic {
		s.Static = b.Args.Operand
	}
	before := append([]float32(nil), b.Dst...)

	k, err := kernel.Build(s)
	if err != nil {
		return err
	}
	if err := k.Exec(b.Args); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s\n", s)
	fmt.Fprintf(ctx.Out, "before: %v\n", before)
	fmt.Fprintf(ctx.Out, "after:  %v\n", b.Dst)
	return nil
}

// demoOperand encodes 10, 20, ..., 160 as 16 elements of dt
func demoOperand(dt injector.DataType) ([]byte, error) {
	var buf []byte
	for i := 0; i < kernel.Lanes; i++ {
		v := float32(10 * (i + 1))
		switch dt {
		case injector.F32:
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		case injector.S32:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))
		case injector.S8:
			buf = append(buf, byte(int8(v/2)))
		case injector.U8:
			buf = append(buf, byte(uint8(v)))
		case injector.BF16:
			buf = binary.LittleEndian.AppendUint16(buf, uint16(math.Float32bits(v)>>16))
		case injector.F16:
			buf = binary.LittleEndian.AppendUint16(buf, float16Bits(v))
		default:
			return nil, fmt.Errorf("%w: %s", injector.ErrUnsupportedDataType, dt)
		}
	}
	return buf, nil
}

// float16Bits converts a normal float32 to IEEE half precision by
// truncating the mantissa
func float16Bits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	if b&0x7FFFFFFF == 0 {
		return sign
	}
	exp := int((b>>23)&0xFF) - 127 + 15
	return sign | uint16(exp)<<10 | uint16((b&0x7FFFFF)>>13)
}

// cmdCPU shows the detected AVX-512 extensions and which kernels can run
func cmdCPU(ctx *CommandContext) error {
	host := jit.HostFeatures()
	fmt.Fprintf(ctx.Out, "platform:  %s\n", engine.HostPlatform())
	fmt.Fprintf(ctx.Out, "features:  %s\n", host)
	fmt.Fprintf(ctx.Out, "execute:   %v\n", jit.CanExecute() && engine.HostPlatform().CanExecute(engine.ArchX86_64))
	fmt.Fprintln(ctx.Out)
	fmt.Fprintf(ctx.Out, "%-6s %-8s %-9s\n", "type", "vector", "broadcast")
	for _, dt := range injector.DataTypes() {
		fmt.Fprintf(ctx.Out, "%-6s %-8s %-9s\n", dt, support(host, dt, false), support(host, dt, true))
	}
	return nil
}

func support(host jit.Features, dt injector.DataType, broadcast bool) string {
	if !injector.Supported(dt) {
		return "-"
	}
	if missing := host.Missing(injector.RequiredFeatures(dt, broadcast)); missing != 0 {
		return "no"
	}
	return "yes"
}

// cmdQuant shows the quantization decision for one tensor
func cmdQuant(ctx *CommandContext, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: postop quant <arch> <tensor name> [dim...]")
	}
	policy, err := quant.DefaultRegistry().Policy(args[0], quant.DefaultParams())
	if err != nil {
		return err
	}
	name := args[1]
	shape := make([]int64, 0, len(args)-2)
	for _, a := range args[2:] {
		d, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid dimension %q: %w", a, err)
		}
		shape = append(shape, d)
	}
	fmt.Fprintf(ctx.Out, "%s %v: %s\n", name, shape, policy.LayerConfig(name, shape, injector.F32))
	if attr, ok := quant.PostOpFor(name, shape, injector.F32, injector.ParamSlot(jit.RDI, kernel.ArgOperand)); ok {
		fmt.Fprintf(ctx.Out, "fused post-op: %s\n", attr)
	}
	return nil
}

// cmdHelp shows the help information
func cmdHelp(ctx *CommandContext) error {
	fmt.Fprintf(ctx.Out, `%s - fused binary post-ops for AVX-512 kernels

USAGE:
    postop [global flags] <command> [arguments]

COMMANDS:
    emit [flags]            Print the instructions of a demo kernel
    run [flags]             Build the demo kernel and run it on this CPU
    gen [-o file] [-p pkg]  Write a Go file with pre-built kernel code
    cpu                     Show detected AVX-512 features
    quant <arch> <name> [dims...]
                            Show how a tensor is quantized (%s)
    help                    Show this help message
    version                 Show version information

KERNEL FLAGS (emit, run):
    -type <t>         Operand type: %s (default f32)
    -op <op>          add, sub, mul, min, max (default add)
    -broadcast        Use the first operand element for every lane
    -lanes <n>        Apply the post-op to the first n lanes only (default 16)
    -masked           Use a lane mask even for -lanes 0 or 16
    -addr <kind>      direct, static, param-slot, base-offset (default param-slot)
    -hex              Print the code bytes only

GLOBAL FLAGS:
    -v, --verbose     Trace every emitted instruction to stderr
    --arch <arch>     Target architecture (default amd64)
    --scratch <n>     Scratch zmm register for the injector (default 2)

ENVIRONMENT:
    POSTOP_VERBOSE, POSTOP_ARCH, POSTOP_SCRATCH set the defaults of the
    global flags.

EXAMPLES:
    postop emit -type bf16 -lanes 5
    postop run -type u8 -broadcast
    postop gen -o kernels_amd64.go -p kernels
    postop quant chatglm transformer.word_embeddings.weight 4096 130528
`, versionString, strings.Join(quant.DefaultRegistry().Names(), ", "), supportedTypeNames())
	return nil
}

func supportedTypeNames() string {
	var names []string
	for _, dt := range injector.DataTypes() {
		if injector.Supported(dt) {
			names = append(names, dt.String())
		}
	}
	return strings.Join(names, ", ")
}
