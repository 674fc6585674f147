package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/xyproto/postop/injector"
	"github.com/xyproto/postop/kernel"
)

// gen.go - export pre-built kernels as Go source
//
// Every supported data type gets an add kernel for a full vector and one
// for a broadcast operand. Kernels are built in parallel, each worker with
// its own generator and injector.

type genKernel struct {
	ident string
	spec  kernel.Spec
	code  []byte
	lines []string
}

func kernelIdent(s kernel.Spec) string {
	title := cases.Title(language.English)
	ident := title.String(s.Op.String()) + title.String(s.DataType.String())
	if s.Broadcast {
		ident += "Broadcast"
	}
	return ident
}

func genSpecs(scratch int) []kernel.Spec {
	var specs []kernel.Spec
	for _, dt := range injector.DataTypes() {
		if !injector.Supported(dt) {
			continue
		}
		for _, bcast := range []bool{false, true} {
			specs = append(specs, kernel.Spec{
				Op:        injector.OpAdd,
				DataType:  dt,
				Broadcast: bcast,
				Address:   injector.AddrParamSlot,
				Scratch:   scratch,
			})
		}
	}
	return specs
}

func buildAll(specs []kernel.Spec) ([]genKernel, error) {
	out := make([]genKernel, len(specs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range specs {
		i, s := i, s
		g.Go(func() error {
			k, err := kernel.Build(s)
			if err != nil {
				return err
			}
			lines := make([]string, len(k.Listing))
			for j, ins := range k.Listing {
				lines[j] = ins.Text
			}
			out[i] = genKernel{ident: kernelIdent(s), spec: s, code: k.Code, lines: lines}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// generateSource renders the kernels as a formatted Go file
func generateSource(pkg string, kernels []genKernel) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by %s gen. DO NOT EDIT.\n\n", versionString)
	fmt.Fprintf(&buf, "//go:build amd64\n\npackage %s\n\n", pkg)
	fmt.Fprintf(&buf, "// Each kernel takes a pointer in RDI to {dst *[16]float32, operand *T}\n")
	fmt.Fprintf(&buf, "// and adds the operand to dst in place.\n\n")
	for _, k := range kernels {
		fmt.Fprintf(&buf, "// %s: %s\n//\n", k.ident, k.spec)
		for _, line := range k.lines {
			fmt.Fprintf(&buf, "//\t%s\n", line)
		}
		fmt.Fprintf(&buf, "var %s = []byte{", k.ident)
		for i, b := range k.code {
			if i%12 == 0 {
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "0x%02x, ", b)
		}
		buf.WriteString("\n}\n\n")
	}
	buf.WriteString("// Kernels maps a kernel name to its code\nvar Kernels = map[string][]byte{\n")
	for _, k := range kernels {
		fmt.Fprintf(&buf, "%q: %s,\n", k.ident, k.ident)
	}
	buf.WriteString("}\n")
	return imports.Process(pkg+".go", buf.Bytes(), nil)
}

// cmdGen writes the generated Go file to -o, or stdout
func cmdGen(ctx *CommandContext, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("o", "-", "output file (- for stdout)")
	pkg := fs.String("p", "kernels", "package name of the generated file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("gen: %w", err)
	}

	kernels, err := buildAll(genSpecs(ctx.Config.Scratch))
	if err != nil {
		return err
	}
	src, err := generateSource(*pkg, kernels)
	if err != nil {
		return fmt.Errorf("format generated source: %w", err)
	}
	if *output == "-" {
		_, err = ctx.Out.Write(src)
		return err
	}
	if ctx.Config.Verbose {
		fmt.Fprintf(os.Stderr, "writing %d kernels to %s\n", len(kernels), *output)
	}
	return os.WriteFile(*output, src, 0o644)
}
