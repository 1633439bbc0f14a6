package solver

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// ParseResponse extracts the answer from a solver payload. It understands chat-completion
// responses ("choices"), and flat "response" or "content" fields, in that order.
// Any other shape yields false.
func ParseResponse(payload []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", false
	}

	if raw, ok := fields["choices"]; ok {
		var choices []openai.ChatCompletionChoice
		if err := json.Unmarshal(raw, &choices); err != nil || len(choices) == 0 {
			return "", false
		}
		return nonEmpty(choices[0].Message.Content)
	}

	for _, key := range []string{"response", "content"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var answer string
		if err := json.Unmarshal(raw, &answer); err != nil {
			return "", false
		}
		return nonEmpty(answer)
	}

	return "", false
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
