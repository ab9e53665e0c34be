package model

// FetchResult is what a fetch engine returns for one page.
//
// Every field except Success is optional. Engines that only retrieve markup
// leave Text empty; engines that render pages may not report raw markup; an
// engine that extracts links itself may populate Links, otherwise the caller
// derives them from HTML. Consumers must tolerate any combination.
type FetchResult struct {
	// Success reports whether the page was retrieved and rendered well
	// enough to be worth processing. False with a nil error means the
	// engine gave up on the page (bad status, wrong content type).
	Success bool `json:"success"`

	// Text is the rendered textual (markdown) form of the page.
	Text string `json:"text,omitempty"`

	// HTML is the raw markup the page was rendered from, when available.
	HTML string `json:"html,omitempty"`

	// Links are outbound link strings the engine already extracted, raw
	// and unnormalized. Nil means "not extracted", not "no links".
	Links []string `json:"links,omitempty"`
}
