package build

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/store"
	"canvas_ai_server/internal/types"
)

const DefaultBuildTimeout = 5 * time.Minute

// Service is the page-level entry point used by the HTTP surface and the CLI.
// It does not serialize builds; two concurrent instructions interleave on the
// broadcast channel and the later insert fails with store.ErrVersionConflict.
type Service struct {
	orch         *Orchestrator
	pages        store.PageStore
	buildTimeout time.Duration
}

func NewService(orch *Orchestrator, pages store.PageStore, buildTimeout time.Duration) *Service {
	if buildTimeout <= 0 {
		buildTimeout = DefaultBuildTimeout
	}
	return &Service{orch: orch, pages: pages, buildTimeout: buildTimeout}
}

// Instruct builds the next version from the latest stored one. The build is
// detached from ctx cancellation and bounded by the build timeout instead.
// The instruction is stored and broadcast exactly as given.
func (s *Service) Instruct(ctx context.Context, instruction string) Result {
	if strings.TrimSpace(instruction) == "" {
		return Result{Err: ErrInvalidInstruction}
	}

	current, err := s.Current(ctx)
	if err != nil {
		return Result{Err: err}
	}

	buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
	defer cancel()
	return s.orch.ExecuteBuild(buildCtx, instruction, current.Files, current.Version, current.Version == 0)
}

// Current returns the latest version, or the synthetic version 0 when the
// store is empty.
func (s *Service) Current(ctx context.Context) (types.PageVersion, error) {
	page, ok, err := s.pages.Latest(ctx)
	if err != nil {
		return types.PageVersion{}, fmt.Errorf("read latest page: %w", err)
	}
	if !ok {
		return types.PageVersion{
			Version: 0,
			Content: sitefiles.InitialPreview(),
			Files:   sitefiles.InitialFiles(),
		}, nil
	}
	if len(page.Files) == 0 {
		page.Files = sitefiles.InitialFiles()
	}
	return page, nil
}

// Version returns one stored version or store.ErrNotFound.
func (s *Service) Version(ctx context.Context, version int) (types.PageVersion, error) {
	return s.pages.Get(ctx, version)
}

// Reset deletes every stored version; the next build is a first build.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.pages.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset pages: %w", err)
	}
	log.Printf("page history reset")
	return nil
}
