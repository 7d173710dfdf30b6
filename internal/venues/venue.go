package venues

import (
	"context"
	"errors"
	"strings"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

// ErrUnsupportedAsset is returned before any network I/O when a venue does
// not list the requested asset.
var ErrUnsupportedAsset = errors.New("venue does not list this asset")

// Adapter fetches one quote from one upstream venue. Implementations never
// panic across this boundary: any upstream problem comes back as an error
// and the round simply proceeds without that venue.
type Adapter interface {
	Name() string
	Supports(asset string) bool
	FetchQuote(ctx context.Context, asset string) (types.Quote, error)
}

// Select filters the full registry down to the configured venue names.
// Unknown names are ignored; an empty list selects everything.
func Select(all []Adapter, names []string) []Adapter {
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	out := make([]Adapter, 0, len(all))
	for _, a := range all {
		if want[strings.ToLower(a.Name())] {
			out = append(out, a)
		}
	}
	return out
}
