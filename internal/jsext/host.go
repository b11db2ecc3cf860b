// Package jsext registers the DocrEngine class into an embedded JavaScript
// runtime (goja).
//
// A goja runtime is single-goroutine, so every Host.Run gets a fresh runtime
// owned by the calling goroutine. The Host holds no interpreter-wide lock:
// concurrent Runs on one Host, including their synchronous recognize calls,
// are inside the engine at the same time. The *Async methods additionally
// let one script overlap several recognitions; their promises settle on the
// Run that started them.
package jsext

import (
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/docr"
)

// Host runs scripts with DocrEngine installed.
type Host struct {
	rec     *docr.Recognizer
	log     *zap.Logger
	out     io.Writer
	prelude *goja.Program
}

// Option configures a Host.
type Option func(*Host)

// WithOutput sets where the script print function writes.
func WithOutput(w io.Writer) Option {
	return func(h *Host) { h.out = w }
}

// WithLogger sets the host logger. The default is the global zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Host) { h.log = log }
}

// New creates a Host whose DocrEngine instances recognize through rec.
func New(rec *docr.Recognizer, opts ...Option) (*Host, error) {
	h := &Host{
		rec: rec,
		log: zap.L(),
		out: io.Discard,
	}
	for _, opt := range opts {
		opt(h)
	}

	prog, err := goja.Compile("prelude.js", prelude, false)
	if err != nil {
		return nil, eris.Wrap(err, "jsext: compile error classes")
	}
	h.prelude = prog
	return h, nil
}

// Run evaluates src in a new runtime and waits for every asynchronous
// recognition it started. If the completion value is a promise, Run returns
// its settled result; a rejected promise is returned as a *RejectionError.
func (h *Host) Run(name, src string) (any, error) {
	s, err := h.newScript()
	if err != nil {
		return nil, err
	}
	defer close(s.done)

	v, err := s.vm.RunScript(name, src)
	if err != nil {
		return nil, err
	}
	s.drain()

	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v.Export(), nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result().Export(), nil
	case goja.PromiseStateRejected:
		return nil, newRejectionError(p.Result())
	default:
		return nil, eris.Errorf("jsext: %s: script finished with an unsettled promise", name)
	}
}

// script is the state of one Run. Everything but jobs and done is touched
// only by the goroutine that called Run.
type script struct {
	*Host
	vm      *goja.Runtime
	jobs    chan func()
	done    chan struct{}
	pending int
}

func (h *Host) newScript() (*script, error) {
	s := &script{
		Host: h,
		vm:   goja.New(),
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	if _, err := s.vm.RunProgram(h.prelude); err != nil {
		return nil, eris.Wrap(err, "jsext: install error classes")
	}
	if err := s.vm.Set("print", s.print); err != nil {
		return nil, eris.Wrap(err, "jsext: install print")
	}
	if err := s.installEngine(); err != nil {
		return nil, eris.Wrap(err, "jsext: install DocrEngine")
	}
	return s, nil
}

// drain runs completions until every asynchronous call of this script has
// settled. A completion may start more calls.
func (s *script) drain() {
	for s.pending > 0 {
		job := <-s.jobs
		s.pending--
		job()
	}
}

// async runs work on its own goroutine and settles the returned promise from
// drain. fail converts a work error into the rejection reason. If the script
// has already returned, the completion is dropped.
func (s *script) async(work func() (string, error), fail func(error) goja.Value) goja.Value {
	p, resolve, reject := s.vm.NewPromise()
	s.pending++
	go func() {
		text, err := work()
		job := func() {
			if err != nil {
				reject(fail(err))
				return
			}
			resolve(text)
		}
		select {
		case s.jobs <- job:
		case <-s.done:
			s.log.Debug("jsext: dropping completion of finished script", zap.Error(err))
		}
	}()
	return s.vm.ToValue(p)
}

func (s *script) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, " "))
	return goja.Undefined()
}

// RejectionError is the reason of a promise a script left rejected.
type RejectionError struct {
	Value goja.Value
	msg   string
}

// newRejectionError captures the message while the owning runtime is still
// in use by the current goroutine.
func newRejectionError(v goja.Value) *RejectionError {
	msg := "Uncaught (in promise) " + v.String()
	if obj, ok := v.(*goja.Object); ok {
		if name, m := obj.Get("name"), obj.Get("message"); name != nil && m != nil {
			msg = name.String() + ": " + m.String()
		}
	}
	return &RejectionError{Value: v, msg: msg}
}

func (e *RejectionError) Error() string { return e.msg }
