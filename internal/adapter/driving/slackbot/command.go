package slackbot

import "strings"

// ParseCommand reports whether text invokes the trigger word and returns the
// optional owner given as the second word. User mentions such as "<@U123>"
// are ignored, so "@bot diss octocat" and "diss @octocat" both parse.
func ParseCommand(text, triggerWord string) (owner string, ok bool) {
	if triggerWord == "" {
		return "", false
	}

	var words []string
	for _, w := range strings.Fields(text) {
		if strings.HasPrefix(w, "<@") && strings.HasSuffix(w, ">") {
			continue
		}
		words = append(words, w)
	}

	if len(words) == 0 || !strings.EqualFold(words[0], triggerWord) {
		return "", false
	}
	if len(words) > 1 {
		owner = strings.TrimPrefix(words[1], "@")
	}
	return owner, true
}
