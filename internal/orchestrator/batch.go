package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"studio/internal/domain"
	"studio/internal/infra"
)

// ItemFunc produces the artifact for one batch slot.
type ItemFunc func(ctx context.Context, index int) (string, error)

// ItemResult is the settled outcome of one slot: success with an artifact or
// failure with a reason. Failures are values, not control flow, so one bad
// item never aborts its siblings.
type ItemResult struct {
	Index       int
	ArtifactURI string
	Err         error
}

// Batch fans generation calls out in fixed-size concurrency groups. Group
// k+1 starts only after every call in group k has settled; within a group,
// dispatch order matches index order but completion order is unspecified.
type Batch struct {
	Window int
	Logger infra.Logger
}

// Run dispatches quantity calls and returns one result per slot, in index
// order. Every slot settles even when its call fails or panics.
func (b Batch) Run(ctx context.Context, quantity int, fn ItemFunc) []ItemResult {
	if quantity <= 0 {
		return nil
	}
	window := b.Window
	if window <= 0 {
		window = 1
	}

	results := make([]ItemResult, quantity)
	for start := 0; start < quantity; start += window {
		end := start + window
		if end > quantity {
			end = quantity
		}

		eg, groupCtx := errgroup.WithContext(ctx)
		for index := start; index < end; index++ {
			index := index
			eg.Go(func() error {
				uri, err := runItem(groupCtx, index, fn)
				results[index] = ItemResult{Index: index, ArtifactURI: uri, Err: err}
				if err != nil {
					b.Logger.Warn().Err(err).Int("index", index).Msg("batch: item failed")
				}
				// Item failures are recorded, never propagated, so the
				// rest of the group keeps running.
				return nil
			})
		}
		_ = eg.Wait()
	}
	return results
}

// runItem isolates one call; a panic settles the slot as failed instead of
// taking down the whole run.
func runItem(ctx context.Context, index int, fn ItemFunc) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item %d panicked: %v", index, r)
		}
	}()
	return fn(ctx, index)
}

// Summarize folds per-slot results into a BatchRun record, one settled job
// per slot in dispatch order.
func (b Batch) Summarize(id string, results []ItemResult) domain.BatchRun {
	run := domain.BatchRun{
		ID:     id,
		Target: len(results),
		Window: b.Window,
		Jobs:   make([]domain.Job, 0, len(results)),
	}
	now := time.Now()
	for _, res := range results {
		job := domain.Job{
			ID:        fmt.Sprintf("%s/%d", id, res.Index),
			Kind:      domain.JobKindImage,
			Status:    domain.JobStatusPending,
			CreatedAt: now,
		}
		job.Start(now)
		if res.Err != nil {
			job.Fail(res.Err.Error(), now)
		} else {
			job.Complete(res.ArtifactURI, now)
		}
		run.Jobs = append(run.Jobs, job)
	}
	return run
}

// Collect reduces per-slot results to the ordered list of produced artifacts.
// Failed slots are omitted. A run in which every slot failed is reported as
// domain.ErrAllFailed, distinct from an empty-but-successful run.
func Collect(results []ItemResult) ([]string, error) {
	artifacts := make([]string, 0, len(results))
	failures := 0
	for _, res := range results {
		if res.Err != nil || res.ArtifactURI == "" {
			failures++
			continue
		}
		artifacts = append(artifacts, res.ArtifactURI)
	}
	if len(results) > 0 && len(artifacts) == 0 && failures == len(results) {
		return nil, domain.ErrAllFailed
	}
	return artifacts, nil
}
