// File: internal/resolve/discovery.go
package resolve

import (
	"context"

	"go.uber.org/zap"
)

// Discoverer is the last-resort fallback when every phase and frame came up
// empty: the loosest containment match over anything clickable, clicking
// the first hit. It is deliberately optimistic, no verification follows,
// and it refuses navigation intents outright; a loose match on "buy" or
// "checkout" clicking some unrelated link is worse than reporting failure.
type Discoverer struct {
	driver Driver
	log    *zap.Logger
}

func NewDiscoverer(driver Driver, log *zap.Logger) *Discoverer {
	return &Discoverer{driver: driver, log: log}
}

type discoveryArgs struct {
	Normalized string `json:"normalized"`
}

type discoveryReply struct {
	Found   bool   `json:"found"`
	Clicked bool   `json:"clicked"`
	Text    string `json:"text"`
}

// Discover attempts the loose match in the main frame. The bool reports
// whether something was clicked; the string is the text it matched on.
func (d *Discoverer) Discover(ctx context.Context, spec TargetSpec) (bool, string, error) {
	if spec.navigationLike() {
		d.log.Debug("discovery refused for navigation target", zap.String("type", spec.RawType))
		return false, "", nil
	}
	var res discoveryReply
	args := discoveryArgs{Normalized: spec.NormalizedValue}
	if err := d.driver.Evaluate(ctx, MainFrame, discoveryScript, args, &res); err != nil {
		return false, "", err
	}
	if res.Found && res.Clicked {
		d.log.Info("discovery fallback clicked loose match", zap.String("text", res.Text))
		return true, res.Text, nil
	}
	return false, "", nil
}
