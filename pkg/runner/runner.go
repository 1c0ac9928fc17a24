package runner

import (
	"bytes"
	"context"
	"os"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer waits for in-flight work to finish before shutdown completes.
type Drainer interface {
	Drain() error
}

// Work is the blocking main loop the runner supervises. It returns when the
// context is canceled or the loop fails.
type Work func(ctx context.Context) error

const Version = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"SAYNA\" \"\" 0 }}\nVersion: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
