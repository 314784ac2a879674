package markdown_test

import (
	"strings"
	"testing"

	"mobtime/internal/platform/markdown"
)

func TestParseAndRender(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("---\ntitle: Mob rotations\nrotations: 2\n---\n\n# Mob rotations\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["title"] != "Mob rotations" || note.Meta["rotations"] != 2 {
		t.Fatalf("unexpected meta %#v", note.Meta)
	}
	if note.Body != "\n# Mob rotations\n" {
		t.Fatalf("unexpected body %q", note.Body)
	}

	note.Meta["rotations"] = 3
	out, err := note.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	again, err := markdown.Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if again.Meta["rotations"] != 3 || again.Body != note.Body {
		t.Fatalf("render did not round trip: %q", out)
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Parallel()
	plain, err := markdown.Parse("just text\n")
	if err != nil || plain.Body != "just text\n" || len(plain.Meta) != 0 {
		t.Fatalf("plain content must be all body: %#v %v", plain, err)
	}
	crlf, err := markdown.Parse("---\r\ntitle: x\r\n---\r\nbody\r\n")
	if err != nil || crlf.Meta["title"] != "x" || crlf.Body != "body\n" {
		t.Fatalf("crlf content: %#v %v", crlf, err)
	}
	empty, err := markdown.Parse("---\n---\nbody")
	if err != nil || len(empty.Meta) != 0 || empty.Body != "body" {
		t.Fatalf("empty frontmatter: %#v %v", empty, err)
	}
	trailing, err := markdown.Parse("---\ntitle: x\n---")
	if err != nil || trailing.Meta["title"] != "x" || trailing.Body != "" {
		t.Fatalf("fence at end of file: %#v %v", trailing, err)
	}
	if _, err := markdown.Parse("---\ntitle: x\n"); err == nil {
		t.Fatalf("expected missing fence error")
	}
}

func TestBlockReplaceAndExtract(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Owner: "mobtime", Name: "rotations"}

	body := block.Replace("# Title\n", "first")
	if !strings.HasPrefix(body, "# Title\n\n<!-- mobtime:rotations:start -->\nfirst\n") {
		t.Fatalf("unexpected appended block %q", body)
	}

	body = strings.Replace(body, "# Title\n", "# Title\nnotes\n", 1)
	body = block.Replace(body, "second\n")
	if strings.Contains(body, "first") || !strings.Contains(body, "notes") {
		t.Fatalf("replace must keep user text only: %q", body)
	}
	got, ok := block.Extract(body)
	if !ok || got != "second" {
		t.Fatalf("unexpected extract %q %t", got, ok)
	}

	if _, ok := (markdown.Block{Owner: "mobtime", Name: "other"}).Extract(body); ok {
		t.Fatalf("unrelated block must not be found")
	}
	if got := block.Replace("", "x"); got != "<!-- mobtime:rotations:start -->\nx\n<!-- mobtime:rotations:end -->\n" {
		t.Fatalf("unexpected block on empty body %q", got)
	}
}
