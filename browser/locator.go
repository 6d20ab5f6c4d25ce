package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"formprobe/metadata"
)

// Locator strategy names, in resolution order.
const (
	StrategyXPath = "xpath"
	StrategyCSS   = "css"
	StrategyName  = "name"
)

// Element is a resolved form control.
type Element struct {
	NodeID cdp.NodeID
	// MatchedBy names the locator strategy that resolved the element.
	MatchedBy string
	// Attempts is the number of strategies tried, including the successful
	// one. On a miss it equals the total number of strategies available.
	Attempts int
}

// attempt is one locator strategy bound to a concrete query.
type attempt struct {
	strategy string
	query    string
	opts     []chromedp.QueryOption
}

// fieldAttempts builds the ordered attempt list for a field: primary XPath,
// secondary CSS selector, then a name-attribute match derived from the field
// id. Empty locators are skipped.
func fieldAttempts(f metadata.Field) []attempt {
	out := make([]attempt, 0, 3)
	if f.XPath != "" {
		out = append(out, attempt{
			strategy: StrategyXPath,
			query:    f.XPath,
			opts:     []chromedp.QueryOption{chromedp.BySearch},
		})
	}
	if f.CSSSelector != "" {
		out = append(out, attempt{
			strategy: StrategyCSS,
			query:    f.CSSSelector,
			opts:     []chromedp.QueryOption{chromedp.ByQuery},
		})
	}
	if f.ID != "" {
		out = append(out, attempt{
			strategy: StrategyName,
			query:    fmt.Sprintf(`[name=%q]`, f.ID),
			opts:     []chromedp.QueryOption{chromedp.ByQuery},
		})
	}
	return out
}

// queryFunc executes one locator attempt and returns the first matching node.
type queryFunc func(ctx context.Context, att attempt) (cdp.NodeID, error)

// resolveWith tries each attempt in order and short-circuits on the first
// success. Exhausting every attempt is not an error; the returned bool is
// false and the Element carries the attempt count.
func resolveWith(ctx context.Context, attempts []attempt, query queryFunc) (Element, bool) {
	for i, att := range attempts {
		id, err := query(ctx, att)
		if err == nil {
			return Element{NodeID: id, MatchedBy: att.strategy, Attempts: i + 1}, true
		}
	}
	return Element{Attempts: len(attempts)}, false
}

// Resolve finds the element described by the field, or reports not-found
// after exhausting every locator strategy.
func (s *Session) Resolve(ctx context.Context, field metadata.Field) (Element, bool) {
	el, ok := resolveWith(ctx, fieldAttempts(field), s.queryFirst)
	if ok {
		s.logger.Debug("element resolved",
			"field_id", field.ID,
			"matched_by", el.MatchedBy,
			"attempts", el.Attempts,
		)
	} else {
		s.logger.Debug("element not found",
			"field_id", field.ID,
			"attempts", el.Attempts,
		)
	}
	return el, ok
}

// queryFirst runs a single locator attempt with the configured per-attempt
// timeout.
func (s *Session) queryFirst(ctx context.Context, att attempt) (cdp.NodeID, error) {
	var nodes []*cdp.Node
	opts := append([]chromedp.QueryOption{}, att.opts...)
	opts = append(opts, chromedp.AtLeast(1))

	if err := s.run(ctx, s.cfg.LocateTimeout, chromedp.Nodes(att.query, &nodes, opts...)); err != nil {
		return 0, err
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("no nodes matched %q", att.query)
	}
	return nodes[0].NodeID, nil
}
