// Package rules provides per-host selector profiles for the quote
// pipeline. A profile tells the core which elements are response
// containers, editable inputs, excluded regions and send controls;
// the patterns are configuration data, never hardcoded logic.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"requote/dom"
)

// Profile defines the selector configuration for one host domain.
// Selector lists are ordered by priority: the first pattern that
// matches anything wins.
type Profile struct {
	Domain  string  `yaml:"domain"`
	Matcher Matcher `yaml:"matcher,omitempty"`

	// Where assistant responses live; selections anchored here are
	// always eligible for capture.
	ResponseContainers []string `yaml:"response_containers"`

	// Editable input surfaces, in lookup order.
	Inputs []string `yaml:"inputs"`

	// Regions whose selections must never be captured (the input and
	// toolbar areas themselves).
	Excluded []string `yaml:"excluded"`

	// The host's native send control.
	SendControls []string `yaml:"send_controls"`

	// Markers whose wholesale removal signals a conversation change.
	ResponseMarkers []string `yaml:"response_markers,omitempty"`
}

// Matcher decides whether a profile applies to a location.
type Matcher struct {
	URLPattern  string `yaml:"url_pattern,omitempty"`
	URLContains string `yaml:"url_contains,omitempty"`
	IsDefault   bool   `yaml:"is_default,omitempty"`
}

// Matches checks the matcher against a location URL.
func (m Matcher) Matches(url string) bool {
	if m.URLPattern != "" {
		ok, err := regexp.MatchString(m.URLPattern, url)
		if err != nil || !ok {
			return false
		}
	}
	if m.URLContains != "" && !strings.Contains(url, m.URLContains) {
		return false
	}
	return m.URLPattern != "" || m.URLContains != ""
}

// Default returns the built-in generic chat-host profile, used whenever
// no configured profile matches.
func Default() *Profile {
	return &Profile{
		Domain: "default",
		ResponseContainers: []string{
			`[data-message-author-role="assistant"]`,
			`.assistant-message`,
			`.response`,
			`article[data-turn]`,
		},
		Inputs: []string{
			`#prompt-textarea`,
			`div[contenteditable="true"]`,
			`textarea`,
			`input[type="text"]`,
		},
		Excluded: []string{
			`form`,
			`.composer`,
			`.toolbar`,
			`header`,
			`nav`,
		},
		SendControls: []string{
			`button[data-testid="send-button"]`,
			`button[aria-label="Send"]`,
			`button.send`,
			`button[type="submit"]`,
		},
		ResponseMarkers: []string{
			`[data-message-author-role="assistant"]`,
			`.assistant-message`,
			`.response`,
		},
	}
}

// Load reads one profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &p, nil
}

// Set is an ordered collection of profiles plus the built-in default.
type Set struct {
	profiles []*Profile
}

// LoadDir reads every *.yaml profile under dir. A missing directory
// yields an empty set, not an error.
func LoadDir(dir string) (*Set, error) {
	s := &Set{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s.profiles = append(s.profiles, p)
	}
	return s, nil
}

// Add appends a profile to the set.
func (s *Set) Add(p *Profile) { s.profiles = append(s.profiles, p) }

// ForURL returns the first profile whose matcher accepts the location,
// then any profile marked default, then the built-in default.
func (s *Set) ForURL(url string) *Profile {
	var fallback *Profile
	for _, p := range s.profiles {
		if p.Matcher.IsDefault {
			if fallback == nil {
				fallback = p
			}
			continue
		}
		if p.Matcher.Matches(url) {
			return p
		}
	}
	if fallback != nil {
		return fallback
	}
	return Default()
}

// FindInput returns the first editable input surface in the document,
// trying selectors in priority order.
func (p *Profile) FindInput(root *html.Node) *html.Node {
	return firstMatch(root, p.Inputs)
}

// FindSendControl returns the host's native send control, or nil.
func (p *Profile) FindSendControl(root *html.Node) *html.Node {
	return firstMatch(root, p.SendControls)
}

// IsExcluded reports whether n sits inside a region selections must not
// be captured from.
func (p *Profile) IsExcluded(n *html.Node) bool {
	return ancestorMatches(n, p.Excluded)
}

// InResponseContainer reports whether n sits inside a recognized
// response container.
func (p *Profile) InResponseContainer(n *html.Node) bool {
	return ancestorMatches(n, p.ResponseContainers)
}

// ContainsResponseMarker reports whether the subtree rooted at n holds
// any response marker; used to recognize a conversation being torn
// down.
func (p *Profile) ContainsResponseMarker(n *html.Node) bool {
	markers := p.ResponseMarkers
	if len(markers) == 0 {
		markers = p.ResponseContainers
	}
	for _, sel := range markers {
		if dom.Matches(n, sel) || dom.First(n, sel) != nil {
			return true
		}
	}
	return false
}

func firstMatch(root *html.Node, selectors []string) *html.Node {
	if root == nil {
		return nil
	}
	doc := goquery.NewDocumentFromNode(root)
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s.Get(0)
		}
	}
	return nil
}

func ancestorMatches(n *html.Node, selectors []string) bool {
	for _, sel := range selectors {
		if dom.ClosestSelector(n, sel) != nil {
			return true
		}
	}
	return false
}
