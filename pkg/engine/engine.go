// Package engine provides a sandboxed Lisp scripting interface to the
// modeling kernel. Scripts place workplanes, draw sketch shapes,
// extrude them, create primitive solids, and apply offsets; evaluation
// produces the same mesh buffers as the interactive path.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/kernel/sdfx"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a non-fatal evaluation failure, such as a parse error or
// a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the successful output of one evaluation: the meshes the
// script produced plus any non-fatal per-shape warnings (skipped
// extrusion shapes).
type Result struct {
	Meshes   []*kernel.Mesh
	Warnings []string
}

// Engine wraps the zygomys interpreter. Each call to Evaluate creates a
// fresh sandboxed environment, so the engine itself is safe for
// concurrent use.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	kernel     kernel.Kernel
}

// NewEngine creates an Engine backed by the sdfx primitive kernel.
func NewEngine() *Engine {
	return &Engine{kernel: sdfx.New()}
}

// NewEngineWith creates an Engine with an explicit primitive kernel,
// used by tests to substitute a stub backend.
func NewEngineWith(k kernel.Kernel) *Engine {
	return &Engine{kernel: k}
}

// Evaluate runs a script and returns the meshes and warnings it
// produced.
//
// Return semantics:
//   - success: result + nil errors + nil error
//   - parse/eval failure: empty result + eval errors + nil error
//   - fatal failure (timeout, panic): empty result + nil + error
func (e *Engine) Evaluate(source string) (Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalOutcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		res, evalErrs, err := e.evaluate(source)
		ch <- evalOutcome{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate runs the script in a fresh sandbox. Sandbox mode keeps user
// code away from the filesystem and syscalls.
func (e *Engine) evaluate(source string) (Result, []EvalError, error) {
	// Empty source is a valid program producing no geometry.
	if strings.TrimSpace(source) == "" {
		return Result{}, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	ctx := newEvalContext(e.kernel)
	registerBuiltins(env, ctx)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return Result{}, parseZygoError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return Result{}, parseZygoError(err), nil
	}
	return Result{Meshes: ctx.meshes, Warnings: ctx.warnings}, nil, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches the simpler "line N: ..." form.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygoError converts a zygomys error into EvalError values,
// extracting a line number from the message when one is present.
func parseZygoError(err error) []EvalError {
	msg := err.Error()
	for _, pat := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := pat.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
