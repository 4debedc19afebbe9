package prompt

import "fmt"

const scriptTemplate = "Write a short, engaging TikTok script about: %s. Keep it under 60 seconds."

// ComposeScript embeds topic into the instruction sent to the text model.
// The topic is passed through untouched, empty or not.
func ComposeScript(topic string) string {
	return fmt.Sprintf(scriptTemplate, topic)
}
