package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reply keys resolved through the catalog.
const (
	ReplyWelcome       = "welcome"
	ReplyPoints        = "points"
	ReplyClick         = "click"
	ReplyVideoStart    = "video.start"
	ReplyVideoDone     = "video.done"
	ReplyVideoNone     = "video.none"
	ReplyAdStart       = "ad.start"
	ReplyAdDone        = "ad.done"
	ReplyAdNone        = "ad.none"
	ReplyGuessPrompt   = "guess.prompt"
	ReplyGuessCorrect  = "guess.correct"
	ReplyGuessWrong    = "guess.wrong"
	ReplyGuessGuidance = "guess.guidance"
	ReplyUnknown       = "unknown"
	ReplyFailure       = "failure"
)

var defaultReplies = map[string]string{
	ReplyWelcome: "Welcome! You have %d points.\n\n" +
		"/points — show your balance\n" +
		"/click — earn 1 point\n" +
		"/video — watch a video for 5 points\n" +
		"/ad — view an ad for 3 points\n" +
		"/guess — guess my number for 2 points",
	ReplyPoints:        "You have %d points.",
	ReplyClick:         "+1 point. You now have %d points.",
	ReplyVideoStart:    "Watch the video and send /done video when you finish: %s",
	ReplyVideoDone:     "Nice, +5 points for the video. You now have %d points.",
	ReplyVideoNone:     "You have no pending video task. Send /video to start one.",
	ReplyAdStart:       "Check out the ad and send /done ad when you finish: %s",
	ReplyAdDone:        "Thanks, +3 points for the ad. You now have %d points.",
	ReplyAdNone:        "You have no pending ad task. Send /ad to start one.",
	ReplyGuessPrompt:   "I picked a number between 1 and 5. What is it?",
	ReplyGuessCorrect:  "Correct! +2 points. You now have %d points.",
	ReplyGuessWrong:    "Wrong, try again.",
	ReplyGuessGuidance: "Reply with a number from 1 to 5.",
	ReplyUnknown:       "I don't know that one. Send /start to see what I can do.",
	ReplyFailure:       "Something went wrong on our side. Please try again later.",
}

// Replies resolves reply texts by key. Entries loaded from a YAML file
// override the compiled-in defaults, so copy can change without a rebuild.
type Replies struct {
	entries map[string]string
}

// NewReplies returns a catalog with the default texts.
func NewReplies() *Replies {
	entries := make(map[string]string, len(defaultReplies))
	for key, value := range defaultReplies {
		entries[key] = value
	}

	return &Replies{entries: entries}
}

// LoadReplies reads a flat key/value YAML file and overlays it on the
// defaults. Unknown keys are rejected to catch typos early.
func LoadReplies(path string) (*Replies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replies: read %s: %w", path, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("replies: parse %s: %w", path, err)
	}

	catalog := NewReplies()
	for key, value := range overrides {
		key = strings.TrimSpace(key)
		if _, ok := catalog.entries[key]; !ok {
			return nil, fmt.Errorf("replies: unknown key %q in %s", key, path)
		}
		catalog.entries[key] = value
	}

	return catalog, nil
}

// Format resolves key and interpolates args into it.
func (r *Replies) Format(key string, args ...interface{}) string {
	text, ok := r.entries[key]
	if !ok {
		return key
	}

	if len(args) == 0 {
		return text
	}

	return fmt.Sprintf(text, args...)
}
