// Package processtest provides a recording process.Runner for tests.
package processtest

import (
	"context"
	"sync"

	"github.com/canonical/dotnet-launcher/internal/process"
)

// Reply is the canned outcome for one Run call.
type Reply struct {
	ExitCode int
	Err      error

	// Before runs inside Run, before the reply is returned.
	Before func(ctx context.Context)
}

// Recorder records every command it is asked to run and replies from a script.
// Calls beyond the script exit zero.
type Recorder struct {
	mu      sync.Mutex
	calls   []process.Command
	replies []Reply
}

// New returns a Recorder replying with replies in order.
func New(replies ...Reply) *Recorder {
	return &Recorder{replies: replies}
}

// Run implements process.Runner.
func (r *Recorder) Run(ctx context.Context, cmd process.Command) (int, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)

	var reply Reply
	if len(r.replies) > 0 {
		reply = r.replies[0]
		r.replies = r.replies[1:]
	}
	r.mu.Unlock()

	if reply.Before != nil {
		reply.Before(ctx)
	}

	return reply.ExitCode, reply.Err
}

// Calls returns the commands run so far.
func (r *Recorder) Calls() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]process.Command(nil), r.calls...)
}

var _ process.Runner = (*Recorder)(nil)
