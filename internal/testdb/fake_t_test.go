package testdb

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// fakeT records what a helper reports to the testing framework. Fatal and
// skip calls end the calling goroutine with runtime.Goexit, like *testing.T,
// so helpers must be driven through run.
type fakeT struct {
	testing.TB

	mu       sync.Mutex
	failed   bool
	skipped  bool
	messages []string
	cleanups []func()
}

func (f *fakeT) Helper()      {}
func (f *fakeT) Name() string { return "TestFake" }

func (f *fakeT) record(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeT) Log(args ...any)                 { f.record(fmt.Sprint(args...)) }
func (f *fakeT) Logf(format string, args ...any) { f.record(fmt.Sprintf(format, args...)) }

func (f *fakeT) Errorf(format string, args ...any) {
	f.record(fmt.Sprintf(format, args...))
	f.mu.Lock()
	f.failed = true
	f.mu.Unlock()
}

func (f *fakeT) Error(args ...any) { f.Errorf("%s", fmt.Sprint(args...)) }

func (f *fakeT) FailNow() {
	f.mu.Lock()
	f.failed = true
	f.mu.Unlock()
	runtime.Goexit()
}

func (f *fakeT) Fatalf(format string, args ...any) {
	f.Errorf(format, args...)
	f.FailNow()
}

func (f *fakeT) Fatal(args ...any) {
	f.Error(args...)
	f.FailNow()
}

func (f *fakeT) SkipNow() {
	f.mu.Lock()
	f.skipped = true
	f.mu.Unlock()
	runtime.Goexit()
}

func (f *fakeT) Skip(args ...any) {
	f.Log(args...)
	f.SkipNow()
}

func (f *fakeT) Skipf(format string, args ...any) {
	f.Logf(format, args...)
	f.SkipNow()
}

func (f *fakeT) Cleanup(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, fn)
}

func (f *fakeT) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

func (f *fakeT) Skipped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skipped
}

func (f *fakeT) Output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.messages, "\n")
}

// run calls fn on its own goroutine, as the testing framework does, then
// runs the registered cleanups in reverse order.
func (f *fakeT) run(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	<-done

	f.mu.Lock()
	cleanups := f.cleanups
	f.cleanups = nil
	f.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		done := make(chan struct{})
		go func(fn func()) {
			defer close(done)
			fn()
		}(cleanups[i])
		<-done
	}
}
