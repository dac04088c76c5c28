package prompts

import "fmt"

// GetSiteCodeChangePrompt wraps an edit instruction for direct mode, where the
// model rewrites the existing files in a single pass.
func GetSiteCodeChangePrompt(instruction string) string {
	prompt := `%s

Apply this change to the current files. Keep everything the instruction does not ask to change.
Remember: Output ONLY the 3 files with delimiters. No explanations.`

	return fmt.Sprintf(prompt, instruction)
}

// GetUserMessage builds the user turn sent with every generation call:
// the serialized current files followed by the instruction.
func GetUserMessage(currentFiles string, instruction string) string {
	return fmt.Sprintf("Current files:\n\n%s\n\nInstruction: %s", currentFiles, instruction)
}
