package api

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/abelbrown/parcelscout/internal/logging"
)

// NormalizeQuery trims q and converts it to NFC so that composed and
// decomposed accents ("São" typed either way) produce the same request.
func NormalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// SearchAddresses returns candidate addresses for query in relevance order.
// A blank query returns no suggestions without touching the network. A
// response without a suggestions array yields an empty list.
func (c *Client) SearchAddresses(ctx context.Context, query string) ([]AddressSuggestion, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return nil, nil
	}

	var resp addressSearchResponse
	if err := c.getJSON(ctx, "api.search", PathAddressSearch, url.Values{"search": {q}}, &resp); err != nil {
		return nil, err
	}
	logging.Debug("address search", "query", q, "suggestions", len(resp.Suggestions))
	return resp.Suggestions, nil
}
