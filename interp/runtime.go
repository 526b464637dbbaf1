package interp

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

// Runtime resolves operation names to opcodes and executes programs.
// A Runtime is immutable after New and safe to share between goroutines;
// stacks and programs are not.
type Runtime struct {
	ops     []Op
	opcodes map[string]bytecode.Opcode
	logger  *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger for a Runtime.
func WithLogger(l *zap.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// New creates a Runtime over the global operation table.
func New(opts ...Option) *Runtime {
	ops := Table()
	rt := &Runtime{
		ops:     ops,
		opcodes: make(map[string]bytecode.Opcode, len(ops)),
		logger:  Logger(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	for i, op := range ops {
		rt.opcodes[op.Name] = bytecode.Opcode(i)
	}
	rt.logger.Debug("runtime ready", zap.Int("ops", len(ops)))
	return rt
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns a process-wide Runtime built on first use.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = New()
	})
	return defaultRuntime
}

// Link resolves an operation name to its opcode.
func (rt *Runtime) Link(name string) (bytecode.Opcode, bool) {
	op, ok := rt.opcodes[name]
	return op, ok
}

// LinkAll resolves every name. Unknown names are reported together in an
// *errors.UnlinkedError.
func (rt *Runtime) LinkAll(names ...string) ([]bytecode.Opcode, error) {
	out := make([]bytecode.Opcode, len(names))
	var missing []string
	for i, name := range names {
		op, ok := rt.opcodes[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[i] = op
	}
	if len(missing) > 0 {
		return nil, errors.NewUnlinkedError(missing)
	}
	return out, nil
}

// MustLink is Link for names known to exist. It panics otherwise.
func (rt *Runtime) MustLink(name string) bytecode.Opcode {
	op, ok := rt.opcodes[name]
	if !ok {
		panic(errors.NewUnlinkedError([]string{name}))
	}
	return op
}

// Op returns the table entry for opcode.
func (rt *Runtime) Op(opcode bytecode.Opcode) (Op, bool) {
	if int(opcode) >= len(rt.ops) {
		return Op{}, false
	}
	return rt.ops[opcode], true
}

// Ops returns the operation table in opcode order.
func (rt *Runtime) Ops() []Op {
	return rt.ops
}

// Len returns the number of operations.
func (rt *Runtime) Len() int {
	return len(rt.ops)
}

// Dispatch reads one opcode from code and runs its handler, which consumes
// its own operands. Contract violations raised inside the handler are
// returned as errors annotated with the operation name.
func (rt *Runtime) Dispatch(code *bytecode.Reader, stack *Stack) (err error) {
	pos := code.Position()
	opcode, err := code.ReadOpcode()
	if err != nil {
		return err
	}
	if int(opcode) >= len(rt.ops) {
		e := errors.UnknownOpcode(uint32(opcode), len(rt.ops))
		e.Detail = fmt.Sprintf("%s at position %d", e.Detail, pos)
		return e
	}
	op := rt.ops[opcode]

	defer func() {
		if r := recover(); r != nil {
			err = annotate(recovered(r), op.Name)
		}
	}()
	return annotate(op.Handler(code, stack), op.Name)
}

// Run dispatches instructions until code is exhausted or one fails.
func (rt *Runtime) Run(stack *Stack, code []byte) error {
	r := bytecode.NewReader(code)
	for !r.Done() {
		pos := r.Position()
		if err := rt.Dispatch(r, stack); err != nil {
			rt.logger.Debug("evaluation failed",
				zap.Int("position", pos),
				zap.Int("depth", stack.Len()),
				zap.Error(err))
			return err
		}
	}
	rt.logger.Debug("run complete",
		zap.Int("code_len", len(code)),
		zap.Int("depth", stack.Len()))
	return nil
}

// Eval runs code against a fresh stack and returns the top value. It
// returns (nil, nil) when the stack ends empty.
func (rt *Runtime) Eval(code []byte) (*erasure.AnyArray, error) {
	stack := NewStack()
	if err := rt.Run(stack, code); err != nil {
		return nil, err
	}
	if stack.Len() == 0 {
		return nil, nil
	}
	return stack.Pop()
}

func recovered(r any) error {
	switch v := r.(type) {
	case *errors.Error:
		return v
	case error:
		return errors.Wrap(errors.PhaseDispatch, errors.KindInvalidData, v, "handler panicked")
	default:
		return errors.New(errors.PhaseDispatch, errors.KindInvalidData).
			Detail("handler panicked: %v", v).
			Build()
	}
}

func annotate(err error, name string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{name}, e.Path...)
	}
	return err
}
