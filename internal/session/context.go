package session

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// BuildContext renders the last maxTurns messages as a context block
// the model can read without confusing it with the live conversation.
func BuildContext(messages []*schema.Message, maxTurns int) string {
	recent := trimTail(messages, maxTurns)

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
