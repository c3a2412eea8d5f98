package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable is a background task stopped by canceling its context.
type Runnable interface {
	Run(context.Context) error
}

// Message is posted to a Loop from any goroutine and consumed by
// controllers in the loop goroutine.
type Message interface{}

// Controller is called once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the state of the current iteration.
type ControlContext interface {
	Context() context.Context
	Time() time.Time
	// Messages returns messages posted before the iteration started.
	// Every controller sees all of them.
	Messages() []Message
	// TriggerNext runs the next iteration right after this one.
	TriggerNext()
}

// LoopAdder adds itself to a Loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
