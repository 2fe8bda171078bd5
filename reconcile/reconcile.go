// Package reconcile runs the full untranslated-keys pipeline for a pair of
// catalogs: flatten both, diff, optionally translate the difference and
// merge it into the target.
package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/locdiff/diff"
	"github.com/minios-linux/locdiff/dispatch"
	"github.com/minios-linux/locdiff/merge"
	"github.com/minios-linux/locdiff/tree"
)

// Pipeline holds everything needed to reconcile one source/target pair.
type Pipeline struct {
	// Source is the source locale code (e.g. "en").
	Source string
	// Target is the target locale code (e.g. "fr").
	Target string
	// Driver performs translation. Required only when translating.
	Driver dispatch.Driver
	// Strategy decides which entries are untranslated (default diff.Presence).
	Strategy diff.Strategy
	// Separator joins path segments (default ".").
	Separator string
	// ChunkSize splits the missing entries into several driver calls of at
	// most ChunkSize texts each. Zero sends everything in one call.
	ChunkSize int
	// OnLog receives progress messages.
	OnLog func(format string, args ...any)
}

func (p *Pipeline) log(format string, args ...any) {
	if p.OnLog != nil {
		p.OnLog(format, args...)
	}
}

func (p *Pipeline) separator() string {
	if p.Separator != "" {
		return p.Separator
	}
	return tree.Separator
}

func (p *Pipeline) strategy() diff.Strategy {
	if p.Strategy != nil {
		return p.Strategy
	}
	return diff.Presence
}

// Row pairs a path with its source text and, after translation, the
// translated text.
type Row struct {
	Path       string
	Source     string
	Translated string
}

// Report is the outcome of one reconciliation run.
type Report struct {
	Source, Target string
	// Missing holds the untranslated source entries in source order.
	Missing *tree.FlatMap
	// Translated holds the driver output keyed by path; nil if not translated.
	Translated *tree.FlatMap
	// Merged is the target tree with translations merged in; nil if not translated.
	Merged *tree.Tree
}

// Count returns the number of untranslated keys.
func (r *Report) Count() int {
	return r.Missing.Len()
}

// Rows returns one row per missing entry, with the translation filled in
// when the run translated.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, r.Missing.Len())
	for _, e := range r.Missing.Entries() {
		row := Row{Path: e.Path, Source: e.Value}
		if r.Translated != nil {
			row.Translated, _ = r.Translated.Get(e.Path)
		}
		rows = append(rows, row)
	}
	return rows
}

// Missing flattens both trees and returns the untranslated source entries.
func (p *Pipeline) Missing(source, target *tree.Tree) (*tree.FlatMap, error) {
	sep := p.separator()
	srcFlat, err := tree.FlattenSep(source, sep)
	if err != nil {
		return nil, fmt.Errorf("flattening %s: %w", p.Source, err)
	}
	tgtFlat, err := tree.FlattenSep(target, sep)
	if err != nil {
		return nil, fmt.Errorf("flattening %s: %w", p.Target, err)
	}
	return diff.DiffWith(srcFlat, tgtFlat, p.strategy()), nil
}

// Run reconciles source into target. When translate is true the missing
// entries are sent to the driver and merged into a copy of target.
// Either a complete report is returned or an error; a failed translation
// never yields a partially merged tree.
func (p *Pipeline) Run(ctx context.Context, source, target *tree.Tree, translate bool) (*Report, error) {
	missing, err := p.Missing(source, target)
	if err != nil {
		return nil, err
	}
	report := &Report{Source: p.Source, Target: p.Target, Missing: missing}
	p.log("%d untranslated keys detected (%s -> %s)", missing.Len(), p.Source, p.Target)

	if !translate {
		return report, nil
	}
	if p.Driver == nil {
		return nil, fmt.Errorf("no translation driver configured")
	}

	translated, err := p.dispatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	merged, err := merge.MergeSep(target, translated, p.separator())
	if err != nil {
		return nil, fmt.Errorf("merging into %s: %w", p.Target, err)
	}

	report.Translated = translated
	report.Merged = merged
	return report, nil
}

// dispatch sends missing to the driver, chunk by chunk. Any failed chunk
// discards the translations of the chunks before it.
func (p *Pipeline) dispatch(ctx context.Context, missing *tree.FlatMap) (*tree.FlatMap, error) {
	chunks := dispatch.Chunks(missing, p.ChunkSize)
	if len(chunks) == 1 {
		return dispatch.Dispatch(ctx, missing, p.Source, p.Target, p.Driver)
	}

	translated := tree.NewFlatMap()
	for i, chunk := range chunks {
		p.log("Translating batch %d/%d (%d keys)", i+1, len(chunks), chunk.Len())
		out, err := dispatch.Dispatch(ctx, chunk, p.Source, p.Target, p.Driver)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", i+1, len(chunks), err)
		}
		for _, e := range out.Entries() {
			translated.Set(e.Path, e.Value)
		}
	}
	return translated, nil
}

// Job is one pipeline with its inputs, for RunAll.
type Job struct {
	Pipeline  *Pipeline
	Source    *tree.Tree
	Target    *tree.Tree
	Translate bool
}

// RunAll runs independent jobs with at most maxConcurrent in flight and
// returns their reports in job order. The first error cancels the rest.
func RunAll(ctx context.Context, jobs []Job, maxConcurrent int) ([]*Report, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	reports := make([]*Report, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, job := range jobs {
		g.Go(func() error {
			r, err := job.Pipeline.Run(ctx, job.Source, job.Target, job.Translate)
			if err != nil {
				return fmt.Errorf("%s -> %s: %w", job.Pipeline.Source, job.Pipeline.Target, err)
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
