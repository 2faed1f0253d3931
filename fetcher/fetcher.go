// Package fetcher snapshots pages over HTTP, with a headless-browser
// fallback for pages whose math is rendered client-side.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// FetchResult contains the fetched HTML and metadata.
type FetchResult struct {
	HTML        string
	FinalURL    string // URL after following redirects
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
	ChromePath     string // Path to Chrome binary (empty = auto-detect)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TimeoutSeconds: 30,
		ChromePath:     "",
	}
}

// Package-level options (set via Configure)
var opts = DefaultOptions()

// Configure sets the package-level options.
func Configure(o Options) {
	if o.UserAgent != "" {
		opts.UserAgent = o.UserAgent
	}
	if o.TimeoutSeconds > 0 {
		opts.TimeoutSeconds = o.TimeoutSeconds
	}
	opts.ChromePath = o.ChromePath // Can be empty
}

// userDataDir returns a persistent directory for Chrome user data so
// cookies survive between snapshots.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "requote-chrome-profile")
}

// Simple fetches a URL using standard HTTP (fast, low bandwidth).
func Simple(url string) (*FetchResult, error) {
	start := time.Now()

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	client := &http.Client{
		Timeout: time.Duration(opts.TimeoutSeconds) * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		FinalURL:    resp.Request.URL.String(),
		UsedBrowser: false,
		FetchTime:   time.Since(start),
	}, nil
}

// mathSettleScript flags the document once client-side math rendering
// has finished. KaTeX renders synchronously during load; MathJax
// exposes a startup promise we can await.
const mathSettleScript = `
window.__mathSettled = false;
window.addEventListener('load', () => {
    if (window.MathJax && MathJax.startup && MathJax.startup.promise) {
        MathJax.startup.promise.then(() => { window.__mathSettled = true; });
    } else if (window.MathJax && MathJax.Hub && MathJax.Hub.Queue) {
        MathJax.Hub.Queue(() => { window.__mathSettled = true; });
    } else {
        window.__mathSettled = true;
    }
});
`

// Rendered fetches a URL with headless Chrome, waiting for client-side
// math rendering to settle before capturing the DOM.
func Rendered(targetURL string) (*FetchResult, error) {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserDataDir(userDataDir()),
		chromedp.Flag("headless", "new"),
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	defer allocCancel()

	// Browser fetches get extra time on top of the HTTP timeout.
	timeout := time.Duration(opts.TimeoutSeconds)*time.Second + 15*time.Second
	ctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var html string
	var finalURL string
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(mathSettleScript).Do(ctx)
			return err
		}),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(waitForMath),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	return &FetchResult{
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}

// waitForMath polls the settle flag set by mathSettleScript, giving up
// after a few seconds so a page without math never stalls the snapshot.
func waitForMath(ctx context.Context) error {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var settled bool
		if err := chromedp.Evaluate(`window.__mathSettled === true`, &settled).Do(ctx); err != nil {
			return nil
		}
		if settled {
			return nil
		}
		if err := chromedp.Sleep(200 * time.Millisecond).Do(ctx); err != nil {
			return err
		}
	}
	return nil
}

// NeedsRendering reports whether fetched HTML loads a client-side math
// renderer but carries no rendered output, meaning a plain HTTP
// snapshot would miss the math markup entirely.
func NeedsRendering(html string) bool {
	loadsRenderer := strings.Contains(html, "katex.min.js") ||
		strings.Contains(html, "MathJax.js") ||
		strings.Contains(html, "tex-mml-chtml") ||
		strings.Contains(html, "tex-chtml")
	if !loadsRenderer {
		return false
	}
	rendered := strings.Contains(html, `class="katex`) ||
		strings.Contains(html, "MathJax_Preview") ||
		strings.Contains(html, "mjx-container")
	return !rendered
}

// Smart fetches a URL using the best available method: simple HTTP
// first, headless browser when the math needs client-side rendering.
func Smart(targetURL string) (*FetchResult, error) {
	result, err := Simple(targetURL)
	if err == nil && !NeedsRendering(result.HTML) {
		return result, nil
	}
	return Rendered(targetURL)
}
