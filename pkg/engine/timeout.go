package engine

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single script evaluation.
const EvalTimeout = 5 * time.Second

// evalOutcome passes evaluation results through the result channel.
type evalOutcome struct {
	result Result
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, failing after EvalTimeout.
// The generation counter discards stale results: if a newer evaluation
// started while this one ran, its result is dropped when it arrives.
// On timeout the worker goroutine may still be running; the generation
// check ensures its late result is ignored.
func waitWithTimeout(
	ch <-chan evalOutcome,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (Result, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return Result{}, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.result, res.errors, res.err

	case <-timer.C:
		return Result{}, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
