package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"requote/dom"
)

const page = `<html><body>
<header><h1>Chat</h1></header>
<main>
  <div class="response" id="resp"><p id="answer">The sky is blue</p></div>
</main>
<form class="composer">
  <div id="input" contenteditable="true"></div>
  <button id="send" type="submit">Send</button>
</form>
</body></html>`

func parsePage(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestDefaultProfileLookups(t *testing.T) {
	doc := parsePage(t)
	p := Default()

	in := p.FindInput(doc)
	if dom.Attr(in, "id") != "input" {
		t.Errorf("FindInput = %v", in)
	}
	send := p.FindSendControl(doc)
	if dom.Attr(send, "id") != "send" {
		t.Errorf("FindSendControl = %v", send)
	}
}

func TestSelectorPriorityOrder(t *testing.T) {
	// A #prompt-textarea outranks a generic contenteditable div.
	src := `<body><div contenteditable="true" id="generic"></div>` +
		`<textarea id="prompt-textarea"></textarea></body>`
	doc, _ := html.Parse(strings.NewReader(src))
	p := Default()
	in := p.FindInput(doc)
	if dom.Attr(in, "id") != "prompt-textarea" {
		t.Errorf("FindInput = %q, want prompt-textarea", dom.Attr(in, "id"))
	}
}

func TestIsExcluded(t *testing.T) {
	doc := parsePage(t)
	p := Default()
	if !p.IsExcluded(dom.First(doc, "#input")) {
		t.Error("input region should be excluded")
	}
	if p.IsExcluded(dom.First(doc, "#answer")) {
		t.Error("response text should not be excluded")
	}
}

func TestInResponseContainer(t *testing.T) {
	doc := parsePage(t)
	p := Default()
	if !p.InResponseContainer(dom.First(doc, "#answer")) {
		t.Error("answer should be inside a response container")
	}
	if p.InResponseContainer(dom.First(doc, "#send")) {
		t.Error("send button is not inside a response container")
	}
}

func TestContainsResponseMarker(t *testing.T) {
	doc := parsePage(t)
	p := Default()
	if !p.ContainsResponseMarker(dom.First(doc, "main")) {
		t.Error("main holds a response marker")
	}
	if p.ContainsResponseMarker(dom.First(doc, "form")) {
		t.Error("form holds no response marker")
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name string
		m    Matcher
		url  string
		want bool
	}{
		{"contains hit", Matcher{URLContains: "chat."}, "https://chat.example.com/c/1", true},
		{"contains miss", Matcher{URLContains: "chat."}, "https://example.com", false},
		{"pattern hit", Matcher{URLPattern: `^https://chat\.`}, "https://chat.example.com", true},
		{"pattern miss", Matcher{URLPattern: `^https://chat\.`}, "http://chat.example.com", false},
		{"empty never matches", Matcher{}, "https://chat.example.com", false},
	}
	for _, tt := range tests {
		if got := tt.m.Matches(tt.url); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLoadDirAndForURL(t *testing.T) {
	dir := t.TempDir()
	profile := `domain: chat.example.com
matcher:
  url_contains: chat.example.com
response_containers:
  - ".bubble"
inputs:
  - "#editor"
excluded:
  - ".tools"
send_controls:
  - "#go"
`
	if err := os.WriteFile(filepath.Join(dir, "chat.yaml"), []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	p := set.ForURL("https://chat.example.com/c/42")
	want := &Profile{
		Domain:             "chat.example.com",
		Matcher:            Matcher{URLContains: "chat.example.com"},
		ResponseContainers: []string{".bubble"},
		Inputs:             []string{"#editor"},
		Excluded:           []string{".tools"},
		SendControls:       []string{"#go"},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("loaded profile mismatch (-want +got):\n%s", diff)
	}

	// Unmatched locations get the built-in default.
	if p := set.ForURL("https://other.example.com"); p.Domain != "default" {
		t.Errorf("fallback profile = %q, want default", p.Domain)
	}
}

func TestLoadDirMissing(t *testing.T) {
	set, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if set.ForURL("x").Domain != "default" {
		t.Error("empty set should fall back to default")
	}
}
