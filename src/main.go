// sysyc is a small compiler for the subset language of spec §1: it lowers
// source text through a textual IR into RISC-V 32-bit assembly. main wires
// the CLI, logger, source reader and output sink, then runs the two front-end
// stages (parse, lower) and, for -riscv mode, the two back-end stages (parse
// IR, emit assembly) in sequence — mirroring the teacher's own main.go
// pipeline shape, stage by stage with an early return on the first error.
package main

import (
	"fmt"
	"os"

	"sysyc/src/frontend"
	"sysyc/src/irgen"
	"sysyc/src/koopa"
	"sysyc/src/riscv"
	"sysyc/src/sbt"
	"sysyc/src/util"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sysyc:", err)
		os.Exit(1)
	}
}

func run() (err error) {
	opt, err := util.ParseArgs()
	if err != nil {
		return err
	}

	log := util.NewLogger(opt.Verbose)
	defer log.Sync() //nolint:errcheck

	src, err := util.ReadSource(opt)
	if err != nil {
		return util.Wrap(err, "reading source")
	}
	log.Debugw("source read", "bytes", len(src))

	var outFile *os.File
	if opt.Out != "" {
		f, err := os.Create(opt.Out)
		if err != nil {
			return util.NewError(util.IO, -1, err.Error())
		}
		outFile = f
		defer outFile.Close()
	}
	sink := util.NewSink(outFile)
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = util.Wrap(cerr, "flushing output")
		}
	}()
	w := sink.NewWriter()

	ir, err := compileToIR(src, log)
	if err != nil {
		return err
	}

	if opt.Mode == util.ModeKoopa {
		w.WriteString(ir)
		w.Flush()
		return nil
	}

	log.Debugw("parsing IR for back-end")
	prog, err := koopa.Parse(ir)
	if err != nil {
		return util.Wrap(err, "parsing IR")
	}
	if err := riscv.Emit(&w, prog); err != nil {
		return util.Wrap(err, "emitting RISC-V")
	}
	w.Flush()
	return nil
}

// compileToIR runs the front-end: parse source to an AST, then lower the AST
// to IR text via a fresh symbol-table Context.
func compileToIR(src string, log *zap.SugaredLogger) (string, error) {
	root, err := frontend.Parse(src)
	if err != nil {
		return "", util.Wrap(err, "parsing source")
	}
	log.Debugw("parsed AST")

	ctx := sbt.New()
	b := irgen.New(ctx)
	ir, err := b.Build(root)
	if err != nil {
		return "", util.Wrap(err, "lowering to IR")
	}
	log.Debugw("lowered to IR", "bytes", len(ir))
	return ir, nil
}
