package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so time-based rules are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return systemClock{}
}

// Module provides the system clock to the fx graph.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
