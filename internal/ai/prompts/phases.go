package prompts

import "fmt"

// BuildPhase describes one stage of a first build.
type BuildPhase struct {
	ID          string
	Name        string
	Description string
	Prompt      string
}

const (
	PhaseStructure     = "structure"
	PhaseStyling       = "styling"
	PhaseFunctionality = "functionality"
)

var buildPhases = []BuildPhase{
	{
		ID:          PhaseStructure,
		Name:        "Building Structure",
		Description: "Creating HTML layout and page structure",
		Prompt: `PHASE 1 - HTML STRUCTURE ONLY

Create the basic HTML structure for the page. Focus on:
- Semantic HTML elements (header, main, section, footer)
- Container divs with appropriate classes
- Placeholder content for where data will go
- Basic loading skeleton structure

For styles.css: Add ONLY minimal reset styles (margin, padding, box-sizing)
For script.js: Add ONLY a comment placeholder

The page should show a basic layout with placeholder text and skeleton shapes.`,
	},
	{
		ID:          PhaseStyling,
		Name:        "Applying Styles",
		Description: "Adding CSS styles and visual design",
		Prompt: `PHASE 2 - STYLING AND DESIGN

Now add complete CSS styling to the existing HTML structure. Focus on:
- Apply a full, consistent color palette (backgrounds, text colors)
- Add all layout styles (grid, flexbox, spacing)
- Style cards, buttons, and interactive elements
- Add hover effects and transitions
- Make it fully responsive
- Add loading skeleton animations

Keep the HTML structure mostly the same, just ensure classes match your CSS.
Keep script.js minimal for now (just a comment or console.log).

The page should now look visually complete but with static/placeholder content.`,
	},
	{
		ID:          PhaseFunctionality,
		Name:        "Adding Functionality",
		Description: "Implementing JavaScript behavior",
		Prompt: `PHASE 3 - JAVASCRIPT FUNCTIONALITY

Now add the complete JavaScript functionality:
- Render dynamic content into the placeholders
- Handle loading states (show/hide skeletons)
- Handle errors gracefully with console.error
- Wire up every button and interactive element

Keep HTML and CSS mostly the same, just ensure they support the dynamic content.

The page should now be fully functional.`,
	},
}

// BuildPhases returns the fixed, ordered phases of a first build.
func BuildPhases() []BuildPhase {
	out := make([]BuildPhase, len(buildPhases))
	copy(out, buildPhases)
	return out
}

// GetPhasePrompt parameterizes a phase template with the operator's request.
// Unknown phase ids return the instruction unchanged.
func GetPhasePrompt(phaseID string, instruction string) string {
	for _, p := range buildPhases {
		if p.ID == phaseID {
			return fmt.Sprintf("%s\n\nUser's original request: %s\n\nRemember: Output ONLY the 3 files with delimiters. No explanations.", p.Prompt, instruction)
		}
	}
	return instruction
}
