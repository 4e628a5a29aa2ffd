// SPDX-License-Identifier: Apache-2.0

package references

import (
	"context"
	"fmt"
)

type Pipeline struct {
	extractors []Extractor
	recorder   *Recorder
}

// NewPipeline creates a Pipeline recording through recorder, which may be
// nil when only Extract is used. Extractors are tried in order, so more
// specific ones go first.
func NewPipeline(recorder *Recorder, extractors ...Extractor) *Pipeline {
	return &Pipeline{
		extractors: extractors,
		recorder:   recorder,
	}
}

// RunResult is the output of a successful pipeline run.
type RunResult struct {
	References    []Reference
	Tally         Tally
	ExtractorUsed string
}

// Extract pulls the references out of source without recording them.
func (p *Pipeline) Extract(ctx context.Context, source Source) ([]Reference, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	extractor, err := p.selectExtractor(source)
	if err != nil {
		return nil, "", err
	}
	refs, err := extractor.Extract(ctx, source)
	if err != nil {
		return nil, "", fmt.Errorf("extractor %q failed: %w", extractor.Name(), err)
	}
	return refs, extractor.Name(), nil
}

// Run extracts the references of source and records them.
func (p *Pipeline) Run(ctx context.Context, source Source) (RunResult, error) {
	refs, used, err := p.Extract(ctx, source)
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{References: refs, ExtractorUsed: used}
	if p.recorder != nil {
		result.Tally = p.recorder.Record(refs)
	}
	return result, nil
}

// selectExtractor returns the first registered extractor that can handle
// the given source.
func (p *Pipeline) selectExtractor(source Source) (Extractor, error) {
	for _, e := range p.extractors {
		if e.CanHandle(source) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unsupported reference format: no extractor found for source %q (format hint: %q)", source.ID, source.Format)
}

// RegisteredExtractors returns the names of all registered extractors.
func (p *Pipeline) RegisteredExtractors() []string {
	names := make([]string, len(p.extractors))
	for i, e := range p.extractors {
		names[i] = e.Name()
	}
	return names
}
