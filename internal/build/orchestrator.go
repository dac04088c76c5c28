// Package build turns an instruction into a persisted page version while
// streaming the generated text to viewers.
package build

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"canvas_ai_server/internal/ai"
	"canvas_ai_server/internal/ai/prompts"
	aiutils "canvas_ai_server/internal/ai/utils"
	"canvas_ai_server/internal/realtime"
	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/store"
	"canvas_ai_server/internal/types"

	"github.com/google/uuid"
)

var (
	ErrChannelUnavailable = errors.New("broadcast channel unavailable")
	ErrInvalidInstruction = errors.New("instruction is required")
)

// PubSub hands out publisher handles on named channels. *realtime.Hub implements it.
type PubSub interface {
	Channel(name string) realtime.Conn
	RemoveChannel(conn realtime.Conn)
	ViewerCount(name string) int
}

// Publisher receives every persisted version after viewers got the complete
// event. Failures are logged only.
type Publisher interface {
	Publish(ctx context.Context, page types.PageVersion) (string, error)
}

type Options struct {
	ChannelName      string
	SubscribeTimeout time.Duration
	StartDelay       time.Duration
	CompleteDelay    time.Duration
	PhasePause       time.Duration
	PublishTimeout   time.Duration
	Pacing           realtime.Pacing
}

func DefaultOptions() Options {
	return Options{
		ChannelName:      "canvas-typing",
		SubscribeTimeout: 5 * time.Second,
		StartDelay:       100 * time.Millisecond,
		CompleteDelay:    200 * time.Millisecond,
		PhasePause:       time.Second,
		PublishTimeout:   30 * time.Second,
		Pacing:           realtime.DefaultPacing(realtime.PacingBuffered),
	}
}

// Result is the outcome of one build. Err is set exactly when Success is false.
type Result struct {
	Success      bool
	Version      int
	Files        types.FileSet
	CombinedHTML string
	Err          error
}

type Orchestrator struct {
	streamer  ai.Streamer
	pubsub    PubSub
	store     store.PageStore
	publisher Publisher
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(streamer ai.Streamer, pubsub PubSub, pages store.PageStore, opts Options) *Orchestrator {
	def := DefaultOptions()
	if opts.ChannelName == "" {
		opts.ChannelName = def.ChannelName
	}
	if opts.SubscribeTimeout <= 0 {
		opts.SubscribeTimeout = def.SubscribeTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = def.PublishTimeout
	}
	if opts.Pacing.Mode == "" {
		opts.Pacing = def.Pacing
	}
	return &Orchestrator{
		streamer: streamer,
		pubsub:   pubsub,
		store:    pages,
		opts:     opts,
		sleep:    realtime.Sleep,
	}
}

// WithPublisher uploads every persisted version through p.
func (o *Orchestrator) WithPublisher(p Publisher) *Orchestrator {
	o.publisher = p
	return o
}

// WithSleep replaces every pacing delay of the build, mainly for tests.
func (o *Orchestrator) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Orchestrator {
	o.sleep = sleep
	return o
}

// ExecuteBuild generates, persists and broadcasts version currentVersion+1.
// It never panics and always releases the broadcast channel before returning.
func (o *Orchestrator) ExecuteBuild(ctx context.Context, instruction string, currentFiles types.FileSet, currentVersion int, isFirstBuild bool) (res Result) {
	buildID := uuid.NewString()
	log.Printf("build %s: starting from version %d (first build: %t, %d viewers)",
		buildID, currentVersion, isFirstBuild, o.pubsub.ViewerCount(o.opts.ChannelName))

	conn := o.pubsub.Channel(o.opts.ChannelName)
	defer o.pubsub.RemoveChannel(conn)
	defer func() {
		if r := recover(); r != nil {
			res = o.fail(ctx, conn, buildID, fmt.Errorf("build panicked: %v", r))
		}
	}()

	if err := o.subscribe(ctx, conn); err != nil {
		return o.fail(ctx, conn, buildID, err)
	}

	totalPhases := 1
	if isFirstBuild {
		totalPhases = len(prompts.BuildPhases())
	}
	err := conn.Send(ctx, realtime.StartEvent{
		Instruction:  instruction,
		TotalPhases:  totalPhases,
		IsFirstBuild: isFirstBuild,
	})
	if err != nil {
		return o.fail(ctx, conn, buildID, fmt.Errorf("send start: %w", err))
	}
	if err := o.sleep(ctx, o.opts.StartDelay); err != nil {
		return o.fail(ctx, conn, buildID, err)
	}

	typer := realtime.NewTyper(conn, o.opts.Pacing).WithSleep(o.sleep)
	var files types.FileSet
	if isFirstBuild {
		runner := NewPhaseRunner(o.streamer, conn, typer, o.opts.PhasePause)
		runner.sleep = o.sleep
		files, err = runner.Run(ctx, instruction, currentFiles)
	} else {
		var raw string
		raw, err = streamAndType(ctx, o.streamer, typer, ai.StreamRequest{
			System: prompts.GetSiteSystemPrompt(),
			User:   aiutils.BuildUserMessage(currentFiles, prompts.GetSiteCodeChangePrompt(instruction)),
		})
		files = sitefiles.ParseFiles(raw)
	}
	if err != nil {
		return o.fail(ctx, conn, buildID, err)
	}

	page := types.PageVersion{
		Version:     currentVersion + 1,
		Content:     sitefiles.Compose(files, sitefiles.InitialPreview()),
		Files:       files,
		Instruction: instruction,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.Insert(ctx, page); err != nil {
		return o.fail(ctx, conn, buildID, fmt.Errorf("persist version %d: %w", page.Version, err))
	}
	log.Printf("build %s: persisted version %d with %d files", buildID, page.Version, len(files))

	if err := o.sleep(ctx, o.opts.CompleteDelay); err != nil {
		return o.fail(ctx, conn, buildID, err)
	}
	err = conn.Send(ctx, realtime.CompleteEvent{
		Files:        page.Files,
		CombinedHTML: page.Content,
		Version:      page.Version,
	})
	if err != nil {
		return o.fail(ctx, conn, buildID, fmt.Errorf("send complete: %w", err))
	}
	o.publish(ctx, buildID, page)

	return Result{
		Success:      true,
		Version:      page.Version,
		Files:        page.Files,
		CombinedHTML: page.Content,
	}
}

func (o *Orchestrator) subscribe(ctx context.Context, conn realtime.Conn) error {
	result := make(chan error, 1)
	conn.Subscribe(func(status realtime.Status, err error) {
		var out error
		switch status {
		case realtime.StatusSubscribed:
		case realtime.StatusChannelError:
			out = ErrChannelUnavailable
			if err != nil {
				out = fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
			}
		default:
			return
		}
		select {
		case result <- out:
		default:
		}
	})

	timer := time.NewTimer(o.opts.SubscribeTimeout)
	defer timer.Stop()
	select {
	case err := <-result:
		return err
	case <-timer.C:
		return fmt.Errorf("%w: not subscribed after %s", ErrChannelUnavailable, o.opts.SubscribeTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) publish(ctx context.Context, buildID string, page types.PageVersion) {
	if o.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.PublishTimeout)
	defer cancel()
	location, err := o.publisher.Publish(pubCtx, page)
	if err != nil {
		log.Printf("WARN: build %s: publish version %d failed: %v", buildID, page.Version, err)
		return
	}
	log.Printf("build %s: published version %d to %s", buildID, page.Version, location)
}

// fail reports err to viewers if the channel still allows it.
func (o *Orchestrator) fail(ctx context.Context, conn realtime.Conn, buildID string, err error) Result {
	log.Printf("ERROR: build %s failed: %v", buildID, err)
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if sendErr := conn.Send(sendCtx, realtime.ErrorEvent{Message: err.Error()}); sendErr != nil {
		log.Printf("build %s: error event not delivered: %v", buildID, sendErr)
	}
	return Result{Err: err}
}
