package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers/genai"
)

// SceneGenerator produces the artifact for one scene.
type SceneGenerator func(ctx context.Context, scene domain.Scene) (string, error)

// UpdateFunc receives per-scene status transitions as they happen. It is
// called from multiple goroutines; the receiver is responsible for locking.
type UpdateFunc func(res domain.SceneResult)

// Scenes runs the storyboard flow: one generation job per eligible scene,
// all dispatched concurrently with no batching window. Scenes missing
// required input are excluded before dispatch and never appear in results.
type Scenes struct {
	Generate    SceneGenerator
	Credentials credentials.Source
	Logger      infra.Logger

	// OnCredentialError fires at most once per run when the backend rejects
	// the credential, after the re-selection side effect has been triggered.
	OnCredentialError func()
}

// Run settles every eligible scene and returns their results in scene order.
// Each scene's status is tracked independently; onUpdate (optional) is
// invoked as transitions happen so a caller can surface completions
// incrementally.
func (s Scenes) Run(ctx context.Context, scenes []domain.Scene, onUpdate UpdateFunc) []domain.SceneResult {
	eligible := make([]domain.Scene, 0, len(scenes))
	for _, scene := range scenes {
		if scene.Eligible() {
			eligible = append(eligible, scene)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	results := make([]domain.SceneResult, len(eligible))
	var credentialOnce sync.Once

	eg, runCtx := errgroup.WithContext(ctx)
	for i, scene := range eligible {
		i, scene := i, scene
		eg.Go(func() error {
			job := domain.Job{ID: scene.ID, Kind: domain.JobKindVideo, Status: domain.JobStatusPending, CreatedAt: time.Now()}
			job.Start(time.Now())
			s.notify(onUpdate, domain.SceneResult{SceneID: scene.ID, Status: job.Status})

			uri, err := s.generateScene(runCtx, scene)
			if err != nil {
				if genai.IsCredentialError(err) {
					credentialOnce.Do(func() { s.handleCredentialError(runCtx) })
				}
				job.Fail(err.Error(), time.Now())
				s.Logger.Warn().Err(err).Str("scene_id", scene.ID).Msg("storyboard: scene failed")
			} else {
				job.Complete(uri, time.Now())
			}

			res := domain.SceneResult{
				SceneID:     scene.ID,
				Status:      job.Status,
				ArtifactURI: job.ArtifactURI,
				Error:       job.ErrorMessage,
			}
			results[i] = res
			s.notify(onUpdate, res)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (s Scenes) generateScene(ctx context.Context, scene domain.Scene) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(scene.ID, r)
		}
	}()
	return s.Generate(ctx, scene)
}

// handleCredentialError triggers the one-time recovery side effect: ask the
// host environment to re-prompt for a credential, then tell the caller so an
// advisory message can be shown. The failing scene stays failed either way.
func (s Scenes) handleCredentialError(ctx context.Context) {
	if s.Credentials != nil {
		if err := s.Credentials.RequestSelection(ctx); err != nil {
			s.Logger.Warn().Err(err).Msg("storyboard: credential re-selection request failed")
		}
	}
	if s.OnCredentialError != nil {
		s.OnCredentialError()
	}
}

func (s Scenes) notify(onUpdate UpdateFunc, res domain.SceneResult) {
	if onUpdate != nil {
		onUpdate(res)
	}
}

func panicError(sceneID string, r any) error {
	return fmt.Errorf("scene %s panicked: %v", sceneID, r)
}
