package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/ofriw/inspect-mcp/inspector"
)

// discoveryError is a target discovery failure carrying the stable code
// that inspector.ErrorCode surfaces to tool callers and the audit trail.
type discoveryError struct {
	msg  string
	code string
}

func (e *discoveryError) Error() string     { return e.msg }
func (e *discoveryError) ErrorCode() string { return e.code }

// ErrTargetNotFound means no tab could be resolved or opened for the URL.
var ErrTargetNotFound error = &discoveryError{msg: "target not found", code: "TARGET_NOT_FOUND"}

// MultipleCandidatesError means more than one open tab matched the URL.
// Callers should close duplicates or pass a more specific URL.
type MultipleCandidatesError struct {
	URL        string
	Candidates []string
}

func (e *MultipleCandidatesError) Error() string {
	return fmt.Sprintf("browser: %d open tabs match %q: %s",
		len(e.Candidates), e.URL, strings.Join(e.Candidates, ", "))
}

func (e *MultipleCandidatesError) ErrorCode() string { return "MULTIPLE_CANDIDATES" }

// Acquire resolves a URL to an inspection target. An already-open tab with
// the same URL is reused; otherwise a new stealth tab is opened and
// navigated. The release func closes the tab only when this call opened it.
func (m *Manager) Acquire(ctx context.Context, url string) (inspector.Target, func(), error) {
	b := m.Browser()
	if b == nil {
		return nil, nil, fmt.Errorf("browser: not started")
	}

	page, err := m.findOpenTab(b, url)
	if err != nil {
		return nil, nil, err
	}
	if page != nil {
		m.cfg.Logger.Debug("browser: reusing open tab", "url", url)
		return inspector.NewRodTarget(page), func() {}, nil
	}

	page, err = m.openTab(ctx, b, url)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := page.Close(); err != nil {
			m.cfg.Logger.Warn("browser: close tab failed", "url", url, "error", err)
		}
	}
	return inspector.NewRodTarget(page), release, nil
}

// findOpenTab returns the single open tab matching the URL, nil when none
// matches, or MultipleCandidatesError when the match is ambiguous.
func (m *Manager) findOpenTab(b *rod.Browser, url string) (*rod.Page, error) {
	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}

	want := normalizeURL(url)
	var matches []*rod.Page
	var matchURLs []string

	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if normalizeURL(info.URL) == want {
			matches = append(matches, p)
			matchURLs = append(matchURLs, info.URL)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &MultipleCandidatesError{URL: url, Candidates: matchURLs}
	}
}

// openTab creates a stealth tab and navigates it to the URL.
func (m *Manager) openTab(ctx context.Context, b *rod.Browser, url string) (*rod.Page, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("%w: navigate %s: %v", ErrTargetNotFound, url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}

	m.cfg.Logger.Info("browser: opened tab", "url", url)
	return page, nil
}

// normalizeURL strips fragments and trailing slashes so trivially distinct
// spellings of the same location still match.
func normalizeURL(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// WaitReady blocks until the browser responds to a version query, bounding
// startup races when Chrome was launched moments ago.
func (m *Manager) WaitReady(ctx context.Context, timeout time.Duration) error {
	b := m.Browser()
	if b == nil {
		return fmt.Errorf("browser: not started")
	}
	deadline := time.Now().Add(timeout)
	for {
		if _, err := b.Version(); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("browser: not ready after %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
