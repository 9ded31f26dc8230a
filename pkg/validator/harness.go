package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/photostructure/convgen/pkg/tagvalue"
	"github.com/photostructure/convgen/pkg/types"
)

// Strategy selects how generated units are compiled. The costs were
// measured, not assumed; see the per-constant notes.
type Strategy int

const (
	// StrategyIsolated builds every unit in a fresh directory with its own
	// module setup. Slowest by far (full dependency resolution per unit)
	// but fully hermetic, useful when diagnosing build environment trouble.
	StrategyIsolated Strategy = iota
	// StrategyShared reuses one build directory across the batch so the
	// support library compiles once, then each unit builds in the low
	// seconds.
	StrategyShared
	// StrategyCached is StrategyShared plus a compiled-module cache keyed
	// by content hash, skipping the toolchain entirely for repeated
	// artifacts. Sub-second per fixture after warmup. The default.
	StrategyCached
)

const defaultCompileTimeout = 60 * time.Second

// Harness compiles generated functions into wasm modules and executes them.
// Execution uses an embedded wasm runtime, so validated code runs fully
// sandboxed and module identity is enforced by name: loading a module whose
// name is already live is refused by the runtime, which is exactly the
// guarantee the hash-derived naming scheme depends on.
type Harness struct {
	log      *slog.Logger
	strategy Strategy
	timeout  time.Duration
	repoRoot string

	rt   wazero.Runtime
	rctx context.Context

	mu       sync.Mutex
	workDir  string
	wasm     map[string][]byte
	compiled map[string]wazero.CompiledModule
}

// Option configures a Harness.
type Option func(*Harness)

// WithStrategy selects the compilation strategy.
func WithStrategy(s Strategy) Option {
	return func(h *Harness) { h.strategy = s }
}

// WithCompileTimeout bounds one toolchain invocation. A hung compile is a
// hard failure for that fixture, never retried.
func WithCompileTimeout(d time.Duration) Option {
	return func(h *Harness) { h.timeout = d }
}

// WithLogger sets the harness logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Harness) { h.log = log }
}

// NewHarness creates a harness. repoRoot is the directory containing this
// module's go.mod; generated units resolve the support library from there.
func NewHarness(repoRoot string, opts ...Option) (*Harness, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, types.Errorf(types.ErrModuleLoad, "resolve repo root %s", repoRoot).WithCause(err)
	}
	h := &Harness{
		log:      slog.Default(),
		strategy: StrategyCached,
		timeout:  defaultCompileTimeout,
		repoRoot: abs,
		rctx:     context.Background(),
		wasm:     make(map[string][]byte),
		compiled: make(map[string]wazero.CompiledModule),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.rt = wazero.NewRuntime(h.rctx)
	wasi_snapshot_preview1.MustInstantiate(h.rctx, h.rt)
	return h, nil
}

// Close releases the wasm runtime and the shared build directory.
func (h *Harness) Close(ctx context.Context) error {
	h.mu.Lock()
	dir := h.workDir
	h.workDir = ""
	h.mu.Unlock()
	if dir != "" {
		os.RemoveAll(dir)
	}
	return h.rt.Close(ctx)
}

// Compile renders the artifact into a standalone command unit and builds it
// for wasip1. The returned bytes are the loadable module. Compilation
// failures carry the full toolchain diagnostic and are never retried:
// deterministic input, deterministic outcome.
func (h *Harness) Compile(ctx context.Context, art *types.Artifact) ([]byte, error) {
	if h.strategy == StrategyCached {
		h.mu.Lock()
		cached, ok := h.wasm[art.Hash]
		h.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	dir, cleanup, err := h.buildDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(h.unitGoMod()), 0o644); err != nil {
		return nil, types.Errorf(types.ErrCompileFailed, "write go.mod").WithCause(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(renderUnit(art)), 0o644); err != nil {
		return nil, types.Errorf(types.ErrCompileFailed, "write unit source").WithCause(err)
	}

	out := filepath.Join(dir, art.Hash+".wasm")
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, "go", "build", "-o", out, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")

	start := time.Now()
	diag, err := cmd.CombinedOutput()
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return nil, types.Errorf(types.ErrCompileTimeout,
				"build of %s exceeded %s", art.Name, h.timeout).WithExpr(art.Expr)
		}
		return nil, types.Errorf(types.ErrCompileFailed,
			"build of %s failed:\n%s", art.Name, diag).WithExpr(art.Expr).WithCause(err)
	}
	h.log.Debug("compiled unit",
		slog.String("name", art.Name),
		slog.Duration("elapsed", time.Since(start)))

	wasm, err := os.ReadFile(out)
	if err != nil {
		return nil, types.Errorf(types.ErrCompileFailed, "read built module").WithCause(err)
	}
	if h.strategy == StrategyCached {
		h.mu.Lock()
		h.wasm[art.Hash] = wasm
		h.mu.Unlock()
	}
	return wasm, nil
}

// buildDir returns the directory to build in and a cleanup function.
// Isolated strategy uses a throwaway directory per unit; the shared
// strategies reuse one directory so the toolchain's incremental caches stay
// warm.
func (h *Harness) buildDir() (string, func(), error) {
	if h.strategy == StrategyIsolated {
		dir, err := os.MkdirTemp("", "convgen-unit-")
		if err != nil {
			return "", nil, types.Errorf(types.ErrCompileFailed, "create build dir").WithCause(err)
		}
		return dir, func() { os.RemoveAll(dir) }, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.workDir == "" {
		dir, err := os.MkdirTemp("", "convgen-build-")
		if err != nil {
			return "", nil, types.Errorf(types.ErrCompileFailed, "create build dir").WithCause(err)
		}
		h.workDir = dir
	}
	return h.workDir, func() {}, nil
}

// unitGoMod points the unit's module at this repository for the support
// library, so builds resolve offline.
func (h *Harness) unitGoMod() string {
	return "module convgen-validate\n\ngo 1.21\n\n" +
		"require github.com/photostructure/convgen v0.0.0\n\n" +
		"replace github.com/photostructure/convgen => " + h.repoRoot + "\n"
}

// envelope is the JSON request the unit reads on stdin.
type envelope struct {
	Input  tagvalue.TagValue            `json:"input"`
	Fields map[string]tagvalue.TagValue `json:"fields,omitempty"`
}

// outcome is the JSON response the unit writes on stdout.
type outcome struct {
	Value *tagvalue.TagValue `json:"value,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Execute loads the module and invokes the artifact's entry point once with
// the given input and context fields. The module is instantiated under its
// hash-derived name and closed before this call returns, so a replacement
// with the same name can always load.
func (h *Harness) Execute(ctx context.Context, art *types.Artifact, wasm []byte,
	input tagvalue.TagValue, fields map[string]tagvalue.TagValue) (tagvalue.TagValue, error) {

	compiled, err := h.compiledModule(ctx, art.Hash, wasm)
	if err != nil {
		return tagvalue.Empty(), err
	}

	payload, err := json.Marshal(envelope{Input: input, Fields: fields})
	if err != nil {
		return tagvalue.Empty(), types.Errorf(types.ErrExecFailed, "encode envelope").WithCause(err)
	}

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName(art.Name).
		WithArgs(art.Name).
		WithStdin(bytes.NewReader(payload)).
		WithStdout(&stdout).
		WithStderr(&stderr)

	mod, err := h.rt.InstantiateModule(ctx, compiled, cfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		// a command module reports completion through its exit code
		if exitErr, ok := err.(*sys.ExitError); !ok || exitErr.ExitCode() > 1 {
			return tagvalue.Empty(), types.Errorf(types.ErrModuleLoad,
				"module %s: %v\n%s", art.Name, err, stderr.String()).WithExpr(art.Expr)
		}
	}

	var out outcome
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return tagvalue.Empty(), types.Errorf(types.ErrExecFailed,
			"module %s wrote no outcome: %v\n%s", art.Name, err, stderr.String()).WithExpr(art.Expr)
	}
	if out.Error != "" {
		return tagvalue.Empty(), types.Errorf(types.ErrExecFailed,
			"%s", out.Error).WithExpr(art.Expr)
	}
	if out.Value == nil {
		return tagvalue.Empty(), nil
	}
	return *out.Value, nil
}

func (h *Harness) compiledModule(ctx context.Context, hash string, wasm []byte) (wazero.CompiledModule, error) {
	h.mu.Lock()
	cm, ok := h.compiled[hash]
	h.mu.Unlock()
	if ok {
		return cm, nil
	}
	cm, err := h.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, types.Errorf(types.ErrModuleLoad, "compile wasm module").WithCause(err)
	}
	h.mu.Lock()
	h.compiled[hash] = cm
	h.mu.Unlock()
	return cm, nil
}

// renderUnit wraps the artifact in a minimal wasip1 command unit speaking a
// single-JSON-object protocol: envelope on stdin, outcome on stdout, exit
// code 1 when the conversion itself fails.
func renderUnit(art *types.Artifact) string {
	var b bytes.Buffer
	b.WriteString("// Code generated by convgen. DO NOT EDIT.\n")
	b.WriteString("package main\n\n")
	b.WriteString("import (\n")
	b.WriteString("\t\"encoding/json\"\n")
	b.WriteString("\t\"os\"\n\n")
	b.WriteString("\t\"github.com/photostructure/convgen/pkg/runtime\"\n")
	b.WriteString("\t\"github.com/photostructure/convgen/pkg/tagvalue\"\n")
	b.WriteString(")\n\n")
	b.WriteString(art.Source)
	b.WriteString("\n")
	b.WriteString(`type envelope struct {
	Input  tagvalue.TagValue            ` + "`json:\"input\"`" + `
	Fields map[string]tagvalue.TagValue ` + "`json:\"fields,omitempty\"`" + `
}

type outcome struct {
	Value *tagvalue.TagValue ` + "`json:\"value,omitempty\"`" + `
	Error string             ` + "`json:\"error,omitempty\"`" + `
}

func emit(o outcome, code int) {
	_ = json.NewEncoder(os.Stdout).Encode(o)
	os.Exit(code)
}

func main() {
	var env envelope
	if err := json.NewDecoder(os.Stdin).Decode(&env); err != nil {
		emit(outcome{Error: "invalid envelope: " + err.Error()}, 1)
	}
	ctx := runtime.NewContext(env.Fields)
`)
	switch art.Kind {
	case types.KindCondition:
		b.WriteString("\tout := tagvalue.Int(0)\n")
		b.WriteString("\tif " + art.Name + "(env.Input, ctx) {\n")
		b.WriteString("\t\tout = tagvalue.Int(1)\n")
		b.WriteString("\t}\n")
		b.WriteString("\temit(outcome{Value: &out}, 0)\n")
	case types.KindPrintConv:
		b.WriteString("\tout := " + art.Name + "(env.Input, ctx)\n")
		b.WriteString("\temit(outcome{Value: &out}, 0)\n")
	default:
		b.WriteString("\tout, err := " + art.Name + "(env.Input, ctx)\n")
		b.WriteString("\tif err != nil {\n")
		b.WriteString("\t\temit(outcome{Error: err.Error()}, 1)\n")
		b.WriteString("\t}\n")
		b.WriteString("\temit(outcome{Value: &out}, 0)\n")
	}
	b.WriteString("}\n")
	return b.String()
}
