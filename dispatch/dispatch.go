// Package dispatch sends the missing entries of a catalog to a translation
// driver in one batch and maps the results back onto their paths.
package dispatch

import (
	"context"
	"fmt"

	"github.com/minios-linux/locdiff/tree"
)

// Driver translates texts from one locale to another. The returned slice
// must have the same length and order as texts.
type Driver interface {
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(ctx context.Context, texts []string, source, target string) ([]string, error)

// Translate calls f.
func (f DriverFunc) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	return f(ctx, texts, source, target)
}

// DriverError wraps a failure reported by the driver.
type DriverError struct {
	Source, Target string
	Err            error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("translating %s -> %s: %v", e.Source, e.Target, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// CardinalityError reports a driver that returned a different number of
// texts than it was given.
type CardinalityError struct {
	Want, Got int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("driver returned %d translations, expected %d", e.Got, e.Want)
}

// Dispatch translates the values of missing with a single driver call and
// returns the translations keyed by the original paths, in the same order.
// Nothing is returned unless every entry was translated. An empty missing
// set returns an empty result without calling the driver.
func Dispatch(ctx context.Context, missing *tree.FlatMap, source, target string, d Driver) (*tree.FlatMap, error) {
	result := tree.NewFlatMap()
	if missing.Len() == 0 {
		return result, nil
	}

	texts := missing.Values()
	out, err := d.Translate(ctx, texts, source, target)
	if err != nil {
		return nil, &DriverError{Source: source, Target: target, Err: err}
	}
	if len(out) != len(texts) {
		return nil, &CardinalityError{Want: len(texts), Got: len(out)}
	}

	for i, path := range missing.Paths() {
		result.Set(path, out[i])
	}
	return result, nil
}

// Chunks splits fm into consecutive FlatMaps of at most size entries,
// for callers that prefer several smaller all-or-nothing dispatches.
// A size <= 0 returns fm as the only chunk.
func Chunks(fm *tree.FlatMap, size int) []*tree.FlatMap {
	entries := fm.Entries()
	if size <= 0 || size >= len(entries) {
		return []*tree.FlatMap{fm}
	}
	var chunks []*tree.FlatMap
	for i := 0; i < len(entries); i += size {
		end := min(i+size, len(entries))
		chunks = append(chunks, tree.FlatMapOf(entries[i:end]...))
	}
	return chunks
}
