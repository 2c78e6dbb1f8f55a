// File: internal/resolve/verify.go
package resolve

import (
	"context"

	"go.uber.org/zap"
)

// Verifier checks the page's selected state for a target, independently of
// whatever the action path believes happened. It reads only live DOM state
// (checked inputs, selected/active markers) and never the temporary tags,
// so a click whose handler silently dropped the event cannot pass.
type Verifier struct {
	driver Driver
	log    *zap.Logger
}

func NewVerifier(driver Driver, log *zap.Logger) *Verifier {
	return &Verifier{driver: driver, log: log}
}

type verifyArgs struct {
	Normalized  string `json:"normalized"`
	NumericOnly bool   `json:"numericOnly"`
}

type verifyReply struct {
	Verified bool   `json:"verified"`
	Source   string `json:"source"`
	Text     string `json:"text"`
}

// Verify reports whether the frame currently shows the target as selected.
// Also used before searching, to detect selections that already hold; a
// positive pre-check makes the resolution a no-op.
func (v *Verifier) Verify(ctx context.Context, frameID string, spec TargetSpec) (VerificationResult, error) {
	args := verifyArgs{Normalized: spec.NormalizedValue, NumericOnly: spec.numericOnly()}
	var res verifyReply
	if err := v.driver.Evaluate(ctx, frameID, verifyScript, args, &res); err != nil {
		return VerificationResult{}, err
	}
	if res.Verified {
		v.log.Debug("selected state confirmed",
			zap.String("source", res.Source),
			zap.String("text", res.Text))
	}
	return VerificationResult{Verified: res.Verified, EvidenceSource: res.Source, MatchedText: res.Text}, nil
}
