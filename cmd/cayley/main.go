package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/cayley/asm"
	"github.com/wippyai/cayley/interp"
	"github.com/wippyai/cayley/kernel"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

var errUsage = stderrors.New("usage")

func main() {
	if err := run(); err != nil {
		if stderrors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "Usage: cayley -f <file.asm|file.bin> [-o out.bin] [-kernel op]")
			fmt.Fprintln(os.Stderr, "       cayley -e '<asm>' [-kernel op]")
			fmt.Fprintln(os.Stderr, "       cayley -disasm <file.bin>")
			fmt.Fprintln(os.Stderr, "       cayley -list [prefix]")
			fmt.Fprintln(os.Stderr, "       cayley -i  (interactive mode)")
		} else {
			msg := fmt.Sprintf("Error: %v", err)
			if isTerminal(os.Stderr) {
				msg = failStyle.Render(msg)
			}
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}

// run parses flags and dispatches to a front end. Deferred cleanup runs
// before main decides the exit status.
func run() (err error) {
	var (
		srcFile     = flag.String("f", "", "Assembler (.asm) or bytecode (.bin) file to run")
		srcText     = flag.String("e", "", "Assembler text to run")
		list        = flag.Bool("list", false, "List ops with opcodes; an optional argument filters by prefix")
		disasm      = flag.String("disasm", "", "Bytecode file to disassemble")
		outFile     = flag.String("o", "", "Write assembled bytecode to this file instead of running it")
		configFile  = flag.String("config", "", "TOML configuration file")
		kernelOp    = flag.String("kernel", "", "Apply a wasm kernel (add, sub, mul, div, min, max) to the top two stack entries")
		logLevel    = flag.String("log", "", "Log level (debug, info, warn, error, off)")
		precision   = flag.Int("precision", -1, "Significant digits for floats (-1 for shortest)")
		maxElems    = flag.Int("max-elems", 0, "Entries printed per axis (0 for all)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg := DefaultConfig()
	if *configFile != "" {
		if cfg, err = LoadConfig(*configFile); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log":
			cfg.Log.Level = *logLevel
		case "precision":
			cfg.Output.Precision = *precision
		case "max-elems":
			cfg.Output.MaxElems = *maxElems
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	interp.SetLogger(logger)

	app := newApp(cfg, logger)
	defer func() {
		if cerr := app.Close(); cerr != nil {
			err = stderrors.Join(err, fmt.Errorf("close kernel host: %w", cerr))
		}
	}()

	switch {
	case *interactive:
		return runInteractive(app)
	case *list:
		app.List(os.Stdout, flag.Arg(0))
		return nil
	case *disasm != "":
		return app.Disassemble(os.Stdout, *disasm)
	case *srcFile != "" || *srcText != "":
		return app.Execute(os.Stdout, *srcFile, *srcText, *outFile, *kernelOp)
	default:
		return errUsage
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// app bundles the interpreter, kernel host and printer shared by the batch
// and interactive front ends.
type app struct {
	rt      *interp.Runtime
	host    *kernel.Host
	printer Printer
	styled  bool
}

func newApp(cfg Config, logger *zap.Logger) *app {
	return &app{
		rt: interp.New(interp.WithLogger(logger)),
		host: kernel.NewHost(context.Background(), &kernel.Config{
			MemoryLimitPages: cfg.Kernel.MemoryLimitPages,
			Logger:           logger,
		}),
		printer: Printer{Precision: cfg.Output.Precision, MaxElems: cfg.Output.MaxElems},
		styled:  isTerminal(os.Stdout),
	}
}

// Close releases the kernel host.
func (a *app) Close() error {
	return a.host.Close(context.Background())
}

func (a *app) header(s string) string {
	if a.styled {
		return headerStyle.Render(s)
	}
	return s
}

// List prints every op whose name starts with prefix.
func (a *app) List(w io.Writer, prefix string) {
	for i, op := range a.rt.Ops() {
		if !strings.HasPrefix(op.Name, prefix) {
			continue
		}
		fmt.Fprintf(w, "%5d  %-24s %s\n", i, op.Name, op.Signature())
	}
}

// Disassemble prints the assembler text of a bytecode file.
func (a *app) Disassemble(w io.Writer, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	ins, err := interp.Disassemble(a.rt, code)
	if err != nil {
		return fmt.Errorf("disassemble: %w", err)
	}
	fmt.Fprint(w, asm.Format(ins))
	return nil
}

// Load returns the bytecode of a source file or inline text. Files ending
// in .bin are taken as bytecode; everything else is assembled.
func (a *app) Load(path, text string) ([]byte, error) {
	if path == "" {
		return asm.Assemble(a.rt, text)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if strings.HasSuffix(path, ".bin") {
		return data, nil
	}
	return asm.Assemble(a.rt, string(data))
}

// Execute assembles and runs a program, or writes its bytecode to out.
func (a *app) Execute(w io.Writer, path, text, out, kernelOp string) error {
	code, err := a.Load(path, text)
	if err != nil {
		return err
	}
	if out != "" {
		if err := os.WriteFile(out, code, 0o644); err != nil {
			return fmt.Errorf("write bytecode: %w", err)
		}
		fmt.Fprintf(w, "wrote %d bytes to %s\n", len(code), out)
		return nil
	}

	stack := interp.NewStack()
	if err := a.rt.Run(stack, code); err != nil {
		return err
	}
	if kernelOp != "" {
		if err := a.Kernel(stack, kernelOp); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, a.header(fmt.Sprintf("stack (%d)", stack.Len())))
	fmt.Fprint(w, a.printer.FormatStack(stack))
	return nil
}

// Kernel pops the right then the left operand, applies op in the wasm host
// and pushes the result. On failure the operands are pushed back.
func (a *app) Kernel(stack *interp.Stack, op string) error {
	if stack.Len() < 2 {
		return fmt.Errorf("kernel %s needs two stack entries, have %d", op, stack.Len())
	}
	r, _ := stack.Pop()
	l, _ := stack.Pop()
	out, err := a.host.Apply(context.Background(), op, l, r)
	if err != nil {
		stack.Push(l)
		stack.Push(r)
		return err
	}
	stack.Push(out)
	return nil
}
