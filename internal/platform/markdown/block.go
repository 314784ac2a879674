package markdown

import "strings"

// Block is a generated region of a note delimited by HTML comment markers.
// Everything outside the markers belongs to the user.
type Block struct {
	Owner string
	Name  string
}

func (b Block) start() string { return "<!-- " + b.Owner + ":" + b.Name + ":start -->" }
func (b Block) end() string   { return "<!-- " + b.Owner + ":" + b.Name + ":end -->" }

// Replace swaps the block's content in body, appending the block when body
// has none.
func (b Block) Replace(body, generated string) string {
	rendered := b.start() + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.end()

	if start, end, ok := b.bounds(body); ok {
		return body[:start] + rendered + body[end:]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return rendered + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + rendered + "\n"
	default:
		return body + "\n\n" + rendered + "\n"
	}
}

// Extract returns the block's current content.
func (b Block) Extract(body string) (string, bool) {
	start, end, ok := b.bounds(body)
	if !ok {
		return "", false
	}
	inner := body[start+len(b.start()) : end-len(b.end())]
	return strings.Trim(inner, "\n"), true
}

func (b Block) bounds(body string) (int, int, bool) {
	start := strings.Index(body, b.start())
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.Index(body[start:], b.end())
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + rel + len(b.end()), true
}
