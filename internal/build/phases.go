package build

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"canvas_ai_server/internal/ai"
	"canvas_ai_server/internal/ai/prompts"
	aiutils "canvas_ai_server/internal/ai/utils"
	"canvas_ai_server/internal/realtime"
	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/types"
)

// PhaseState is the position of a first build in its fixed phase sequence.
type PhaseState int

const (
	PhaseIdle PhaseState = iota
	PhaseStructure
	PhaseStyling
	PhaseFunctionality
	PhaseDone
)

func (s PhaseState) String() string {
	switch s {
	case PhaseIdle:
		return "idle"
	case PhaseStructure:
		return "phase_1_structure"
	case PhaseStyling:
		return "phase_2_styling"
	case PhaseFunctionality:
		return "phase_3_functionality"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("PhaseState(%d)", int(s))
	}
}

var phaseStates = map[string]PhaseState{
	prompts.PhaseStructure:     PhaseStructure,
	prompts.PhaseStyling:       PhaseStyling,
	prompts.PhaseFunctionality: PhaseFunctionality,
}

// PhaseRunner drives the three generation passes of a first build. Each
// phase sees exactly the files parsed from the previous phase's output.
type PhaseRunner struct {
	streamer ai.Streamer
	sender   realtime.Sender
	typer    *realtime.Typer
	pause    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	state PhaseState
}

func NewPhaseRunner(streamer ai.Streamer, sender realtime.Sender, typer *realtime.Typer, pause time.Duration) *PhaseRunner {
	return &PhaseRunner{
		streamer: streamer,
		sender:   sender,
		typer:    typer,
		pause:    pause,
		sleep:    realtime.Sleep,
		state:    PhaseIdle,
	}
}

func (r *PhaseRunner) State() PhaseState { return r.state }

// Run executes every phase in order starting from files and returns the
// FileSet parsed from the last phase. On error the state stays on the
// failing phase.
func (r *PhaseRunner) Run(ctx context.Context, instruction string, files types.FileSet) (types.FileSet, error) {
	if r.state != PhaseIdle {
		return nil, fmt.Errorf("phase runner already used (state %s)", r.state)
	}
	phases := prompts.BuildPhases()
	current := files

	for i, phase := range phases {
		r.state = phaseStates[phase.ID]
		parsed, err := r.runPhase(ctx, instruction, current, phase, i, len(phases))
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", phase.ID, err)
		}
		current = parsed

		if i < len(phases)-1 {
			if err := r.sleep(ctx, r.pause); err != nil {
				return nil, fmt.Errorf("phase %s: %w", phase.ID, err)
			}
		}
	}
	r.state = PhaseDone
	return current, nil
}

func (r *PhaseRunner) runPhase(ctx context.Context, instruction string, files types.FileSet, phase prompts.BuildPhase, index, total int) (types.FileSet, error) {
	err := r.sender.Send(ctx, realtime.PhaseStartEvent{
		PhaseID:          phase.ID,
		PhaseName:        phase.Name,
		PhaseDescription: phase.Description,
		PhaseIndex:       index,
		TotalPhases:      total,
	})
	if err != nil {
		return nil, fmt.Errorf("send phase_start: %w", err)
	}

	r.typer.SetPhase(phase.ID)
	raw, err := streamAndType(ctx, r.streamer, r.typer, ai.StreamRequest{
		System: prompts.GetSiteSystemPrompt(),
		User:   aiutils.BuildUserMessage(files, prompts.GetPhasePrompt(phase.ID, instruction)),
	})
	if err != nil {
		return nil, err
	}

	parsed := sitefiles.ParseFiles(raw)
	if len(parsed) == 0 {
		log.Printf("WARN: phase %s produced no files (%d bytes of output)", phase.ID, len(raw))
	}
	err = r.sender.Send(ctx, realtime.PhaseCompleteEvent{
		PhaseID:      phase.ID,
		PhaseName:    phase.Name,
		Files:        parsed,
		CombinedHTML: sitefiles.Compose(parsed, sitefiles.InitialPreview()),
		PhaseIndex:   index,
		TotalPhases:  total,
	})
	if err != nil {
		return nil, fmt.Errorf("send phase_complete: %w", err)
	}
	return parsed, nil
}

// streamAndType runs one generation call, pacing every fragment out through
// typer, and returns the full text.
func streamAndType(ctx context.Context, streamer ai.Streamer, typer *realtime.Typer, req ai.StreamRequest) (string, error) {
	var full strings.Builder
	err := streamer.StreamText(ctx, req, func(fragment string) error {
		full.WriteString(fragment)
		return typer.Write(ctx, fragment)
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if err := typer.Flush(ctx); err != nil {
		return "", fmt.Errorf("flush chunks: %w", err)
	}
	return full.String(), nil
}
