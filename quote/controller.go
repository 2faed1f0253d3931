// Package quote holds the quote/compose/send state machine: it captures
// an extracted selection, merges it with live input through a citation
// template, injects the merged message and triggers the host's native
// send exactly once.
package quote

import (
	"time"

	"golang.org/x/net/html"

	"requote/dom"
	"requote/extract"
	"requote/host"
	"requote/inject"
)

// State of the controller's session machine.
type State int

const (
	// Idle: no quote captured.
	Idle State = iota
	// Quoted: a quote is held and the indicator is shown.
	Quoted
	// Composing: a send gesture was intercepted; merge and inject are
	// in progress.
	Composing
)

func (s State) String() string {
	switch s {
	case Quoted:
		return "quoted"
	case Composing:
		return "composing"
	}
	return "idle"
}

// TemplateSource supplies the current citation template and change
// notifications. The configuration store implements it; FixedTemplate
// covers the store-less case.
type TemplateSource interface {
	Current() string
	Subscribe(fn func(tmpl string))
}

// FixedTemplate is a TemplateSource that never changes.
type FixedTemplate string

func (f FixedTemplate) Current() string             { return string(f) }
func (f FixedTemplate) Subscribe(func(tmpl string)) {}

// Timings are the controller's deferral durations.
type Timings struct {
	SelectionSettle time.Duration // pointer-up before reading the selection
	FocusSettle     time.Duration // focus change before injecting
	SendDispatch    time.Duration // injection before re-triggering send
	BypassClear     time.Duration // synthesized send before clearing the bypass
	LocationPoll    time.Duration // between location checks
}

// DefaultTimings mirror the short settle delays a host framework needs.
func DefaultTimings() Timings {
	return Timings{
		SelectionSettle: 50 * time.Millisecond,
		FocusSettle:     50 * time.Millisecond,
		SendDispatch:    100 * time.Millisecond,
		BypassClear:     300 * time.Millisecond,
		LocationPoll:    500 * time.Millisecond,
	}
}

// Controller owns the single quote session and the floating trigger and
// indicator. It is constructed once at startup; all mutation happens on
// the host's event loop.
type Controller struct {
	host      *host.Host
	extractor *extract.Extractor
	timings   Timings

	tmplSrc  TemplateSource
	template string

	state   State
	session *Session
	pending *dom.Range // selection offered by the floating trigger

	// gen invalidates deferred tasks: every dismissal or completion
	// bumps it, and a stale task checks before acting.
	gen    int
	bypass bool

	lastLocation string

	// UI hooks: the floating trigger and the quote indicator.
	OnTrigger   func(visible bool)
	OnIndicator func(s *Session)
}

// NewController wires a controller to a host. The template source is
// read once and cached; change notifications replace the cache
// atomically (single-threaded, so plain assignment).
func NewController(h *host.Host, src TemplateSource, t Timings) *Controller {
	c := &Controller{
		host:      h,
		extractor: extract.New(h.Document()),
		timings:   t,
		tmplSrc:   src,
		template:  DefaultTemplate,
	}
	if src != nil {
		if cur := src.Current(); ValidTemplate(cur) {
			c.template = cur
		}
		src.Subscribe(func(tmpl string) {
			if ValidTemplate(tmpl) {
				c.template = tmpl
			}
		})
	}
	c.lastLocation = h.Location()
	return c
}

// State returns the current machine state.
func (c *Controller) State() State { return c.state }

// Timings returns the deferral durations the controller schedules with.
func (c *Controller) Timings() Timings { return c.timings }

// Session returns the active quote session, nil when Idle.
func (c *Controller) Session() *Session { return c.session }

// Template returns the cached citation template.
func (c *Controller) Template() string { return c.template }

// Bind registers the controller's listeners and starts location
// polling. Call once after construction.
func (c *Controller) Bind() {
	c.host.AddListener(host.EventPointerUp, false, c.onPointerUp)
	c.host.AddListener(host.EventClick, true, c.onClickCapture)
	c.host.AddListener(host.EventKeydown, true, c.onKeydownCapture)
	c.host.ObserveMutations(c.onMutation)
	c.armLocationPoll()
}

// onPointerUp defers the selection read so the host's own
// selection-commit settles first. The deferred task re-checks the live
// selection rather than trusting a snapshot.
func (c *Controller) onPointerUp(*host.Event) {
	c.host.Loop().After(c.timings.SelectionSettle, func() {
		sel := c.host.Selection()
		if sel == nil || !c.eligible(*sel) {
			c.hideTrigger()
			return
		}
		c.pending = sel
		c.showTrigger()
	})
}

// eligible applies the selection validity rule: an anchor inside an
// excluded region is rejected; inside a recognized response container
// it is accepted; anything else is accepted by default.
func (c *Controller) eligible(sel dom.Range) bool {
	p := c.host.Profile()
	anchor := sel.Start.Node
	// Excluded regions veto; response containers and the permissive
	// fallback both accept.
	return !p.IsExcluded(anchor)
}

// CommitSelection is the trigger activation: extract the pending
// selection and move Idle -> Quoted. Clearing the selection and hiding
// the trigger are side effects of a successful capture.
func (c *Controller) CommitSelection() {
	if c.pending == nil || c.state == Composing {
		return
	}
	res := c.extractor.Extract(*c.pending)
	if res.Text == "" {
		return
	}
	c.session = newSession(res.Text, res.DisplayText)
	c.state = Quoted
	c.pending = nil
	c.host.ClearSelection()
	c.hideTrigger()
	if c.OnIndicator != nil {
		c.OnIndicator(c.session)
	}
}

// Dismiss clears the session: Quoted -> Idle. Idempotent; dismissing an
// absent session is a no-op, not an error.
func (c *Controller) Dismiss() {
	if c.session == nil && c.state == Idle {
		return
	}
	c.session = nil
	c.state = Idle
	c.gen++
	c.hideTrigger()
	if c.OnIndicator != nil {
		c.OnIndicator(nil)
	}
}

// onMutation dismisses the session when a removed subtree carried
// response markers: the conversation view is being torn down.
func (c *Controller) onMutation(removed *html.Node) {
	if c.session == nil {
		return
	}
	if c.host.Profile().ContainsResponseMarker(removed) {
		c.Dismiss()
	}
}

// armLocationPoll re-arms the periodic location check. Polling and
// mutation observation race benignly: both dismissal paths are no-ops
// on an absent session.
func (c *Controller) armLocationPoll() {
	c.host.Loop().After(c.timings.LocationPoll, func() {
		if loc := c.host.Location(); loc != c.lastLocation {
			c.lastLocation = loc
			c.Dismiss()
		}
		c.armLocationPoll()
	})
}

// onClickCapture intercepts clicks on the send control while a quote is
// active. The bypass flag lets the controller's own synthesized send
// through.
func (c *Controller) onClickCapture(e *host.Event) {
	if c.bypass || !c.isSendControl(e.Target) {
		return
	}
	c.interceptSend(e)
}

// onKeydownCapture intercepts an unshifted Enter inside the input
// surface, the keyboard send gesture.
func (c *Controller) onKeydownCapture(e *host.Event) {
	if c.bypass || e.Key != "Enter" || e.Shift {
		return
	}
	if !c.isInsideInput(e.Target) {
		return
	}
	c.interceptSend(e)
}

// interceptSend maps a send gesture onto the state machine: Quoted
// starts a compose, Composing swallows the duplicate gesture, Idle
// leaves the event alone.
func (c *Controller) interceptSend(e *host.Event) {
	switch c.state {
	case Quoted:
		e.PreventDefault()
		c.beginCompose()
	case Composing:
		// A second gesture in the same interaction must not produce a
		// second native send.
		e.PreventDefault()
	}
}

// beginCompose moves Quoted -> Composing and defers the merge+inject
// step so the host framework's focus handling settles.
func (c *Controller) beginCompose() {
	c.state = Composing
	gen := c.gen
	c.host.Loop().After(c.timings.FocusSettle, func() {
		if c.gen != gen || c.state != Composing {
			return
		}
		c.compose()
	})
}

// compose merges the quote with the live input, injects the result and
// schedules the self-triggered send. On injection failure the quote is
// left intact and nothing is sent.
func (c *Controller) compose() {
	in := c.host.Profile().FindInput(c.host.Document())
	surface := inject.Detect(in)
	if surface == nil {
		c.host.Notice("requote: no editable input surface found; quote discarded")
		c.Dismiss()
		return
	}

	merged := Merge(c.template, c.session.RawText, surface.Value())
	if !inject.Inject(in, merged, c.host) {
		c.state = Quoted // abort; quote intact, no send
		return
	}

	// The bypass must be set before the synthesized action is
	// dispatched and cleared only after its own deferral elapses.
	c.bypass = true
	gen := c.gen
	c.host.Loop().After(c.timings.SendDispatch, func() {
		if c.gen != gen {
			c.bypass = false
			return
		}
		c.performNativeSend(in)
		c.session = nil
		c.state = Idle
		c.gen++
		if c.OnIndicator != nil {
			c.OnIndicator(nil)
		}
		c.host.Loop().After(c.timings.BypassClear, func() {
			c.bypass = false
		})
	})
}

// performNativeSend re-invokes the host's own send path: the recognized
// control when present, a synthesized Enter otherwise.
func (c *Controller) performNativeSend(in *html.Node) {
	if btn := c.host.Profile().FindSendControl(c.host.Document()); btn != nil {
		c.host.Click(btn)
		return
	}
	c.host.Keydown(in, "Enter", false)
}

func (c *Controller) isSendControl(n *html.Node) bool {
	btn := c.host.Profile().FindSendControl(c.host.Document())
	if btn == nil || n == nil {
		return false
	}
	return dom.Closest(n, func(a *html.Node) bool { return a == btn }) != nil
}

func (c *Controller) isInsideInput(n *html.Node) bool {
	in := c.host.Profile().FindInput(c.host.Document())
	if in == nil || n == nil {
		return false
	}
	return dom.Closest(n, func(a *html.Node) bool { return a == in }) != nil
}

func (c *Controller) showTrigger() {
	if c.OnTrigger != nil {
		c.OnTrigger(true)
	}
}

func (c *Controller) hideTrigger() {
	if c.OnTrigger != nil {
		c.OnTrigger(false)
	}
}
