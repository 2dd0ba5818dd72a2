package answer

import "fmt"

// DeflectionText is what the model is instructed to say when the answer
// is not in the knowledge snippet.
const DeflectionText = "I'm not sure about that — please visit our website for more details."

// ApologyText is the reply when the completion call itself fails.
const ApologyText = "Sorry, there was an error processing your request."

// BuildSystemPrompt composes the grounding instruction with the current
// knowledge snippet. The delimiters keep the snippet visually distinct
// from the instruction so the model does not treat site text as rules.
func BuildSystemPrompt(knowledge string) string {
	return fmt.Sprintf(`You are a helpful assistant. Answer the user's question using the knowledge provided below. If the answer is not found in the knowledge, reply: %q

--- BEGIN KNOWLEDGE BASE ---
%s
--- END KNOWLEDGE BASE ---`, DeflectionText, knowledge)
}
