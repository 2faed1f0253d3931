package fetcher

import "testing"

func TestNeedsRendering(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected bool
	}{
		{
			name:     "no math at all",
			html:     `<html><body><p>plain prose</p></body></html>`,
			expected: false,
		},
		{
			name:     "katex loaded but unrendered",
			html:     `<html><head><script src="/katex.min.js"></script></head><body>$x$</body></html>`,
			expected: true,
		},
		{
			name:     "katex loaded and already rendered",
			html:     `<html><head><script src="/katex.min.js"></script></head><body><span class="katex">x</span></body></html>`,
			expected: false,
		},
		{
			name:     "mathjax v3 loaded but unrendered",
			html:     `<html><head><script src="https://cdn.example.com/tex-mml-chtml.js"></script></head><body>\(x\)</body></html>`,
			expected: true,
		},
		{
			name:     "mathjax v3 rendered containers present",
			html:     `<html><head><script src="/tex-chtml.js"></script></head><body><mjx-container>x</mjx-container></body></html>`,
			expected: false,
		},
		{
			name:     "mathjax v2 rendered",
			html:     `<html><head><script src="/MathJax.js"></script></head><body><span class="MathJax_Preview"></span></body></html>`,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRendering(tt.html); got != tt.expected {
				t.Errorf("NeedsRendering() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfigureKeepsDefaultsForZeroValues(t *testing.T) {
	defer Configure(DefaultOptions())

	Configure(Options{TimeoutSeconds: 10})
	if opts.UserAgent == "" {
		t.Error("user agent lost after partial configure")
	}
	if opts.TimeoutSeconds != 10 {
		t.Errorf("timeout = %d", opts.TimeoutSeconds)
	}

	Configure(Options{UserAgent: "test/1.0"})
	if opts.UserAgent != "test/1.0" {
		t.Errorf("user agent = %q", opts.UserAgent)
	}
	if opts.TimeoutSeconds != 10 {
		t.Errorf("timeout reset by partial configure: %d", opts.TimeoutSeconds)
	}
}
