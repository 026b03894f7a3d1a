// Package events defines the progress/log sink the core components report
// through. A sink is always passed in explicitly; components never default to
// printing on their own.
package events

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Sink receives append-only run events and a monotonically increasing
// progress fraction in [0, 1].
type Sink interface {
	Eventf(format string, args ...any)
	Progress(fraction float64)
}

// ConsoleSink writes events through a zerolog logger.
type ConsoleSink struct {
	logger zerolog.Logger
}

// Console creates a sink backed by the given logger.
func Console(logger zerolog.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger.With().Str("component", "run").Logger()}
}

func (s *ConsoleSink) Eventf(format string, args ...any) {
	s.logger.Info().Msg(fmt.Sprintf(format, args...))
}

func (s *ConsoleSink) Progress(fraction float64) {
	s.logger.Debug().Float64("progress", fraction).Msg("Progress")
}

// FuncSink adapts plain callbacks to the Sink interface, for callers that
// surface progress in their own UI. Nil callbacks are ignored.
type FuncSink struct {
	EventFn    func(msg string)
	ProgressFn func(fraction float64)
}

func (s *FuncSink) Eventf(format string, args ...any) {
	if s.EventFn != nil {
		s.EventFn(fmt.Sprintf(format, args...))
	}
}

func (s *FuncSink) Progress(fraction float64) {
	if s.ProgressFn != nil {
		s.ProgressFn(fraction)
	}
}

// NullSink discards everything.
type NullSink struct{}

func (NullSink) Eventf(string, ...any) {}

func (NullSink) Progress(float64) {}
