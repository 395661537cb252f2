// Package command classifies raw message text into bot commands.
package command

import (
	"strconv"
	"strings"
)

// Kind enumerates every command the bot understands.
type Kind string

const (
	KindStart       Kind = "start"
	KindClick       Kind = "click"
	KindPoints      Kind = "points"
	KindBeginVideo  Kind = "begin_video"
	KindBeginAd     Kind = "begin_ad"
	KindDoneVideo   Kind = "done_video"
	KindDoneAd      Kind = "done_ad"
	KindBeginGuess  Kind = "begin_guess"
	KindSubmitGuess Kind = "submit_guess"
	KindUnknown     Kind = "unknown"
)

// Command is a parsed instruction. Guess carries the submitted number
// and is meaningful only for KindSubmitGuess.
type Command struct {
	Kind  Kind
	Guess int
}

// Parse classifies trimmed message text by command prefix. Text that is a
// plain base-10 integer parses as a guess submission; anything else that
// matches no prefix is unknown. Parse has no side effects.
func Parse(text string) Command {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "/start"):
		return Command{Kind: KindStart}
	case strings.HasPrefix(text, "/points"):
		return Command{Kind: KindPoints}
	case strings.HasPrefix(text, "/click"):
		return Command{Kind: KindClick}
	case strings.HasPrefix(text, "/video"):
		return Command{Kind: KindBeginVideo}
	case strings.HasPrefix(text, "/done"):
		return parseDone(strings.TrimPrefix(text, "/done"))
	case strings.HasPrefix(text, "/ad"):
		return Command{Kind: KindBeginAd}
	case strings.HasPrefix(text, "/guess"):
		return Command{Kind: KindBeginGuess}
	}

	if n, ok := ParseGuess(text); ok {
		return Command{Kind: KindSubmitGuess, Guess: n}
	}

	return Command{Kind: KindUnknown}
}

// ParseGuess reports whether text is a plain base-10 integer. Floats,
// mixed text and empty input are not guesses.
func ParseGuess(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseDone(rest string) Command {
	switch {
	case strings.Contains(rest, "video"):
		return Command{Kind: KindDoneVideo}
	case strings.Contains(rest, "ad"):
		return Command{Kind: KindDoneAd}
	default:
		return Command{Kind: KindUnknown}
	}
}
