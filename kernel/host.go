package kernel

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

const pageSize = 65536

// Config holds configuration for host creation
type Config struct {
	// MemoryLimitPages caps the linear memory of each kernel module in
	// pages (64KB each). 0 means the wazero default.
	MemoryLimitPages uint32

	// Logger receives compilation and growth records. Defaults to a no-op
	// logger.
	Logger *zap.Logger
}

// Host runs element-wise kernels inside wazero. One module per element
// type is compiled and instantiated on first use. Calls are serialized
// because a module instance is not re-entrant.
type Host struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	modules map[array.DType]api.Module
	logger  *zap.Logger
}

// NewHost creates a kernel host. cfg may be nil.
func NewHost(ctx context.Context, cfg *Config) *Host {
	runtimeCfg := wazero.NewRuntimeConfig()
	logger := zap.NewNop()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			logger = cfg.Logger
		}
	}
	return &Host{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		modules: make(map[array.DType]api.Module),
		logger:  logger,
	}
}

// Close releases every compiled module.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules = make(map[array.DType]api.Module)
	return h.runtime.Close(ctx)
}

// module returns the instance for dtype. Callers hold h.mu.
func (h *Host) module(ctx context.Context, dtype array.DType) (api.Module, error) {
	if mod, ok := h.modules[dtype]; ok {
		return mod, nil
	}
	names := Ops(dtype)
	bin := encodeModule(dtype, names)

	compiled, err := h.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Instantiation(fmt.Errorf("compile %s kernels: %w", dtype, err))
	}
	mod, err := h.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName("kernel_"+dtype.String()))
	if err != nil {
		return nil, errors.Instantiation(fmt.Errorf("instantiate %s kernels: %w", dtype, err))
	}
	h.logger.Debug("kernel module ready",
		zap.Stringer("dtype", dtype),
		zap.Strings("ops", names),
		zap.Int("bytes", len(bin)))
	h.modules[dtype] = mod
	return mod, nil
}

// Apply computes op element-wise over l and r, which must share dtype and
// shape. The result is a new array; l and r are left untouched. Float min
// and max propagate NaN.
func (h *Host) Apply(ctx context.Context, op string, l, r *erasure.AnyArray) (*erasure.AnyArray, error) {
	if !l.Valid() || !r.Valid() {
		return nil, errors.InvalidData(errors.PhaseKernel, []string{op}, "operand holds no array")
	}
	dtype := l.DType()
	if r.DType() != dtype {
		return nil, errors.TypeMismatch(errors.PhaseKernel, []string{op}, r.DType().String(), dtype.String())
	}
	if l.Rank() != r.Rank() || !slices.Equal(l.Shape(), r.Shape()) {
		return nil, errors.ShapeMismatch(errors.PhaseKernel, r.Shape(), l.Shape())
	}
	if !Supported(op, dtype) {
		return nil, errors.NotFound(errors.PhaseKernel, "kernel", fmt.Sprintf("%s_%s", op, dtype))
	}

	lb, rb := l.UnsafeBytes(), r.UnsafeBytes()
	n := len(lb)
	if n == 0 {
		return erasure.UnsafeFromBytes(dtype, l.Shape(), nil)
	}
	if uint64(n)*3 > math.MaxUint32 {
		return nil, errors.Unsupported(errors.PhaseKernel,
			fmt.Sprintf("%d byte operands exceed 32-bit linear memory", n))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	mod, err := h.module(ctx, dtype)
	if err != nil {
		return nil, err
	}
	mem := mod.Memory()
	if err := h.reserve(mem, uint32(3*n)); err != nil {
		return nil, err
	}
	if !mem.Write(0, lb) || !mem.Write(uint32(n), rb) {
		return nil, errors.InvalidData(errors.PhaseKernel, []string{op}, "write operands to linear memory")
	}

	fn := mod.ExportedFunction(op)
	if _, err := fn.Call(ctx, 0, uint64(n), uint64(2*n), uint64(n)); err != nil {
		return nil, errors.Wrap(errors.PhaseKernel, errors.KindInvalidData, err, "call "+op)
	}

	raw, ok := mem.Read(uint32(2*n), uint32(n))
	if !ok {
		return nil, errors.InvalidData(errors.PhaseKernel, []string{op}, "read result from linear memory")
	}
	return erasure.UnsafeFromBytes(dtype, l.Shape(), raw)
}

// reserve grows mem to hold at least need bytes.
func (h *Host) reserve(mem api.Memory, need uint32) error {
	have := mem.Size()
	if have >= need {
		return nil
	}
	pages := (need - have + pageSize - 1) / pageSize
	if _, ok := mem.Grow(pages); !ok {
		return errors.New(errors.PhaseKernel, errors.KindUnsupported).
			Detail("cannot grow linear memory by %d pages to %d bytes", pages, need).
			Build()
	}
	h.logger.Debug("kernel memory grown", zap.Uint32("pages", pages), zap.Uint32("bytes", mem.Size()))
	return nil
}
