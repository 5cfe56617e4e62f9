// options.go parses command line flags into an Options structure that is threaded
// explicitly through every compiler stage instead of read back from globals.

package util

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Mode selects which artefact the compiler emits.
type Mode int

// Output artefact modes, see spec §6.1.
const (
	ModeKoopa Mode = iota // Emit textual IR.
	ModeRiscV             // Emit RISC-V assembly.
)

// Options holds every flag-derived setting needed by the pipeline.
type Options struct {
	Src     string // Path to source file; empty means read from stdin.
	Out     string // Path to output file; empty means write to stdout.
	Mode    Mode   // Output artefact mode.
	Verbose bool   // Emit structured diagnostics through the logger.
}

// appVersion is printed by --version.
const appVersion = "sysyc 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses os.Args[1:] into an Options value.
func ParseArgs() (Options, error) {
	fs := flag.NewFlagSet("sysyc", flag.ContinueOnError)

	koopa := fs.Bool("koopa", false, "emit textual IR instead of RISC-V assembly")
	riscv := fs.Bool("riscv", false, "emit RISC-V assembly (default)")
	out := fs.StringP("out", "o", "", "path to the output file; defaults to stdout")
	verbose := fs.BoolP("verbose", "v", false, "log compiler stages to stderr")
	version := fs.Bool("version", false, "print the compiler version and exit")

	// Accept the single-dash mode selectors -koopa and -riscv alongside their
	// --koopa/--riscv long forms.
	args := make([]string, len(os.Args)-1)
	copy(args, os.Args[1:])
	for i, a := range args {
		if a == "-koopa" || a == "-riscv" {
			args[i] = "-" + a
		}
	}
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	if *version {
		fmt.Println(appVersion)
		os.Exit(0)
	}

	opt := Options{
		Out:     *out,
		Verbose: *verbose,
	}

	switch {
	case *koopa && *riscv:
		return opt, errors.New("-koopa and -riscv are mutually exclusive")
	case *koopa:
		opt.Mode = ModeKoopa
	default:
		opt.Mode = ModeRiscV
	}

	if args := fs.Args(); len(args) > 0 {
		opt.Src = args[0]
	}
	return opt, nil
}
