package inspector

import (
	"context"
	"encoding/json"

	"github.com/go-rod/rod/lib/proto"
)

// NodeID identifies a DOM node on the target. It aliases the CDP node id
// so fakes in tests can mint ids without a browser.
type NodeID = proto.DOMNodeID

// Target is the narrow contract the inspection pipeline consumes from a
// connected browser tab. The rod-backed implementation lives in
// target_rod.go; tests substitute a fake. All methods are single protocol
// round trips; the orchestrator owns retries and sequencing.
type Target interface {
	// EnsureDomains enables the DOM/CSS/Page capability set.
	EnsureDomains(ctx context.Context) error

	// DocumentRoot fetches the document's root node id. May fail
	// transiently during navigation races; the caller retries.
	DocumentRoot(ctx context.Context) (NodeID, error)

	// Query resolves a selector under the given root to a single node id,
	// returning 0 when nothing matches.
	Query(ctx context.Context, root NodeID, selector string) (NodeID, error)

	// ComputedStyle reads the full computed style map of a node.
	ComputedStyle(ctx context.Context, node NodeID) (ComputedStyles, error)

	// MatchedRules collects the cascade rules matching a node, in the
	// order the browser applies them, including an inline-style
	// pseudo-rule when the element carries a style attribute.
	MatchedRules(ctx context.Context, node NodeID) ([]CascadeRule, error)

	// Screenshot captures the page as PNG, optionally clipped to a
	// viewport-space rect.
	Screenshot(ctx context.Context, clip *Rect) ([]byte, error)

	// SetPageScale applies a page scale (zoom) factor.
	SetPageScale(ctx context.Context, scale float64) error

	// Eval runs one of the named helper routines in the page and returns
	// its JSON result.
	Eval(ctx context.Context, fn string, args ...any) (json.RawMessage, error)
}
