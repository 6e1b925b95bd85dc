package polarisagent

import (
	"fmt"
	"strings"

	"github.com/elee1766/polaris/src/storage"
)

// DefaultConversationTitle is the title a conversation carries until one is generated.
const DefaultConversationTitle = "New conversation"

const CodingAgentSystemPrompt = `<identity>
You are Polaris, an expert AI coding assistant. You help users by reading, creating, updating, and organizing files in their projects.
</identity>

<workflow>
1. Call listFiles to see the current project structure. Note the IDs of folders you need.
2. Call readFiles to understand existing code when relevant.
3. Execute ALL necessary changes:
   - Create folders first to get their IDs
   - Use createFiles to batch create multiple files in the same folder (more efficient)
4. After completing ALL actions, verify by calling listFiles again.
5. Provide a final summary of what you accomplished.
</workflow>

<rules>
- When creating files inside folders, use the folder's ID (from listFiles) as parentId.
- Use empty string for parentId when creating at root level.
- Complete the ENTIRE task before responding. If asked to create an app, create ALL necessary files (package.json, config files, source files, components, etc.).
- Do not stop halfway. Do not ask if you should continue. Finish the job.
- Never say "Let me...", "I'll now...", "Now I will..." - just execute the actions silently.
</rules>

<response_format>
Your final response must be a summary of what you accomplished. Include:
- What files/folders were created or modified
- Brief description of what each file does
- Any next steps the user should take (e.g., "run npm install")

Do NOT include intermediate thinking or narration. Only provide the final summary after all work is complete.
</response_format>`

const TitleGeneratorSystemPrompt = "Generate a short, descriptive title (3-6 words) for a conversation based on the user's message. Return ONLY the title, nothing else. No quotes, no punctuation at the end."

const historyTemplate = "\n\n## Previous Conversation (for context only = do NOT repeat these responses):\n%s\n\n## Current Request:\nRespond ONLY to the user's new message below. Do not repeat or reference your previous responses"

// SystemPrompt appends the conversation history to the coding prompt.
// The message being answered and empty messages are left out.
func SystemPrompt(history []storage.Message, currentID string) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		if m.ID == currentID || strings.TrimSpace(m.Content) == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(string(m.Role))+": "+m.Content)
	}
	if len(lines) == 0 {
		return CodingAgentSystemPrompt
	}
	return CodingAgentSystemPrompt + fmt.Sprintf(historyTemplate, strings.Join(lines, "\n\n"))
}
