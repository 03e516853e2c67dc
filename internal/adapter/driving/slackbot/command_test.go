package slackbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOwner string
		wantOK    bool
	}{
		{name: "bare trigger", text: "diss", wantOK: true},
		{name: "case insensitive", text: "DISS", wantOK: true},
		{name: "with owner", text: "diss octocat", wantOwner: "octocat", wantOK: true},
		{name: "owner with at sign", text: "diss @octocat", wantOwner: "octocat", wantOK: true},
		{name: "mention before trigger", text: "<@U012AB3CD> diss acme", wantOwner: "acme", wantOK: true},
		{name: "surrounding whitespace", text: "  diss\tacme  ", wantOwner: "acme", wantOK: true},
		{name: "trigger not first", text: "please diss", wantOK: false},
		{name: "prefix only", text: "dissolve", wantOK: false},
		{name: "empty", text: "", wantOK: false},
		{name: "only mention", text: "<@U012AB3CD>", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, ok := ParseCommand(tt.text, "diss")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
		})
	}
}

func TestParseCommand_EmptyTriggerWord(t *testing.T) {
	_, ok := ParseCommand("diss", "")
	assert.False(t, ok)
}
