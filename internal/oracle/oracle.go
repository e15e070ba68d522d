// Package oracle talks to the text-generation service that proposes,
// validates and translates dictionary words.
package oracle

import "context"

// SampleOptions control a single completion.
type SampleOptions struct {
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	// Format asks the service to constrain output, e.g. "json".
	Format string
}

// DefaultSampleOptions returns the sampling parameters used for a temperature.
func DefaultSampleOptions(temperature float64) SampleOptions {
	return SampleOptions{
		Temperature:   temperature,
		TopP:          0.9,
		RepeatPenalty: 1.1,
	}
}

// Oracle returns one free-form text completion per call.
type Oracle interface {
	Generate(ctx context.Context, prompt string, opts SampleOptions) (string, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, prompt string, opts SampleOptions) (string, error)

func (f Func) Generate(ctx context.Context, prompt string, opts SampleOptions) (string, error) {
	return f(ctx, prompt, opts)
}
