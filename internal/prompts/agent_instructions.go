package prompts

import (
	"os"
	"path/filepath"
)

// GetAgentInstructions reads AGENT.md, or AGENTS.md, from workingDir.
// Returns "" if neither exists.
func GetAgentInstructions(workingDir string) string {
	for _, name := range []string{"AGENT.md", "AGENTS.md"} {
		if content, err := os.ReadFile(filepath.Join(workingDir, name)); err == nil {
			return string(content)
		}
	}
	return ""
}
