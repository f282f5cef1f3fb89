package content

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// metaMarkers flag lines where the model talks about the task instead of
// writing the email.
var metaMarkers = []string{
	"[generate", "[your", "[insert", "[intro", "[close",
	"ok, i'll", "ok, i need", "okay,", "copy the",
	"rest of the email remains",
}

// ParseCompletion splits model output into subject and body. Reasoning
// blocks are dropped, meta lines are skipped, and defaultSubject is used when
// the output has no "Subject:" line. The body keeps one trimmed line per
// input line with blank edges removed.
func ParseCompletion(raw, defaultSubject string) (subject, body string) {
	raw = thinkBlock.ReplaceAllString(raw, "")
	if _, after, ok := strings.Cut(raw, "</think>"); ok {
		raw = after
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	start := 0
	for i, line := range lines {
		if s, ok := subjectLine(line); ok {
			subject = s
			start = i + 1
			break
		}
	}
	if subject == "" {
		subject = defaultSubject
	}

	var out []string
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if isMeta(line) {
			continue
		}
		out = append(out, line)
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return subject, strings.Join(out, "\n")
}

func subjectLine(line string) (string, bool) {
	line = strings.TrimLeft(strings.TrimSpace(line), "*# ")
	const prefix = "subject:"
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(line[len(prefix):]), "*"))
	return s, s != ""
}

func isMeta(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range metaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
