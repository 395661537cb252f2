package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected Command
	}{
		{name: "start", text: "/start", expected: Command{Kind: KindStart}},
		{name: "start with payload", text: "/start ref123", expected: Command{Kind: KindStart}},
		{name: "points", text: "/points", expected: Command{Kind: KindPoints}},
		{name: "click", text: "/click", expected: Command{Kind: KindClick}},
		{name: "video", text: "/video", expected: Command{Kind: KindBeginVideo}},
		{name: "ad", text: "/ad", expected: Command{Kind: KindBeginAd}},
		{name: "done video", text: "/done video", expected: Command{Kind: KindDoneVideo}},
		{name: "done with video later", text: "/done the video", expected: Command{Kind: KindDoneVideo}},
		{name: "done ad", text: "/done ad", expected: Command{Kind: KindDoneAd}},
		{name: "bare done", text: "/done", expected: Command{Kind: KindUnknown}},
		{name: "guess", text: "/guess", expected: Command{Kind: KindBeginGuess}},
		{name: "numeric guess", text: "3", expected: Command{Kind: KindSubmitGuess, Guess: 3}},
		{name: "negative number", text: "-7", expected: Command{Kind: KindSubmitGuess, Guess: -7}},
		{name: "padded number", text: "  5  ", expected: Command{Kind: KindSubmitGuess, Guess: 5}},
		{name: "float is not a guess", text: "3.5", expected: Command{Kind: KindUnknown}},
		{name: "letters are not a guess", text: "abc", expected: Command{Kind: KindUnknown}},
		{name: "mixed is not a guess", text: "3abc", expected: Command{Kind: KindUnknown}},
		{name: "empty", text: "", expected: Command{Kind: KindUnknown}},
		{name: "unknown slash command", text: "/help", expected: Command{Kind: KindUnknown}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse(tc.text))
		})
	}
}

func TestParseGuess(t *testing.T) {
	n, ok := ParseGuess("4")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = ParseGuess("4.0")
	assert.False(t, ok)

	_, ok = ParseGuess("/click")
	assert.False(t, ok)
}
