package bot

import "strings"

// tokenize splits command text into tokens, honoring quotes and backslash
// escapes so task names may contain spaces:
//
//	/skip "dish washing" 2026-10-17
func tokenize(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		out   []string
		buf   strings.Builder
		inQ   bool
		qChar byte
		esc   bool
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case esc:
			buf.WriteByte(ch)
			esc = false
		case ch == '\\':
			esc = true
		case inQ:
			if ch == qChar {
				inQ = false
			} else {
				buf.WriteByte(ch)
			}
		case ch == '"' || ch == '\'':
			inQ, qChar = true, ch
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			flush()
		default:
			buf.WriteByte(ch)
		}
	}
	flush()
	return out
}

// parseCommand recognizes "/name args" and "!name args". A Telegram
// "@botname" suffix on the name is dropped.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '/' && text[0] != '!') {
		return "", nil, false
	}
	toks := tokenize(text[1:])
	if len(toks) == 0 {
		return "", nil, false
	}
	name = strings.ToLower(toks[0])
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return name, toks[1:], true
}

// mentionsSchedule reports whether free text asks about the schedule.
func mentionsSchedule(text string) bool {
	return strings.Contains(strings.ToLower(text), "schedule")
}
