// File: internal/resolve/types.go
package resolve

import "errors"

// Kind is the canonical category of a resolution target.
type Kind string

const (
	KindColor     Kind = "color"
	KindSize      Kind = "size"
	KindQuantity  Kind = "quantity"
	KindAddToCart Kind = "add-to-cart"
	KindGeneric   Kind = "generic"
)

// ControlKind is the category of interactive widget a candidate represents.
// Routing in the dispatcher is a closed match over these variants; no ad hoc
// type checks elsewhere.
type ControlKind string

const (
	ControlNativeSelect    ControlKind = "native-select"
	ControlCustomDropdown  ControlKind = "custom-dropdown"
	ControlQuantityStepper ControlKind = "quantity-stepper"
	ControlClickable       ControlKind = "clickable"
)

// Phase identifies one matching strategy in the ordered search pipeline.
type Phase string

const (
	PhaseOverlay Phase = "overlay"
	PhaseDomTree Phase = "dom-tree"
	PhasePattern Phase = "pattern"
)

// AttributeSource names the attribute a candidate matched on.
type AttributeSource string

const (
	SourceAlt       AttributeSource = "alt"
	SourceAriaLabel AttributeSource = "aria-label"
	SourceTitle     AttributeSource = "title"
	SourceText      AttributeSource = "text"
	SourceDataAttr  AttributeSource = "data-attr"
)

// Rect is an element bounding box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SelectOption is one option of a native select element.
type SelectOption struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}

// CandidateElement is a DOM node tentatively satisfying a target spec.
// It is ephemeral: the Index handle references a temporary data attribute
// tag and must never be cached across retries, because layout may have
// changed in between.
type CandidateElement struct {
	FrameID     string
	Index       int
	ControlKind ControlKind
	MatchScore  int
	MatchedText string
	Source      AttributeSource
	Box         Rect
	Options     []SelectOption
}

// SearchResult is the outcome of one pipeline search over a scope.
type SearchResult struct {
	Found          bool
	Candidate      *CandidateElement
	Phase          Phase
	ContainerScope string
}

// ActionMethod records how an interaction was performed.
type ActionMethod string

const (
	MethodNativeEvent     ActionMethod = "native-event"
	MethodSyntheticMouse  ActionMethod = "synthetic-mouse-events"
	MethodCoordinateClick ActionMethod = "coordinate-click"
)

// ActionOutcome is the result of dispatching one candidate. Dispatch never
// verifies its own effect; that is the verifier's job.
type ActionOutcome struct {
	Attempted bool
	Succeeded bool
	Method    ActionMethod
}

// VerificationResult is the independent post-action state check.
type VerificationResult struct {
	Verified       bool
	EvidenceSource string
	MatchedText    string
}

// FailureCode classifies why a resolution did not succeed.
type FailureCode string

const (
	// CodeNotFound: no candidate cleared the threshold in any phase or
	// frame. Recoverable; the caller may retry with different wording.
	CodeNotFound FailureCode = "NotFound"
	// CodeActionFailed: a candidate was found but interaction failed
	// after retries. Recoverable by re-running the whole resolution.
	CodeActionFailed FailureCode = "ActionFailed"
	// CodeVerificationFailed: the action appeared to succeed but the
	// independent check disagrees. Never silently accepted.
	CodeVerificationFailed FailureCode = "VerificationFailed"
)

// Outcome is the structured result returned past the engine boundary.
// Failures are data, not errors; only transport-level disconnection is
// surfaced as an error by the driver layer.
type Outcome struct {
	Success     bool        `json:"success"`
	MatchedText string      `json:"matchedText,omitempty"`
	Method      string      `json:"method,omitempty"`
	Phase       Phase       `json:"phase,omitempty"`
	FrameURL    string      `json:"frameUrl,omitempty"`
	Code        FailureCode `json:"code,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// ErrStaleContext marks a remote operation that failed because the page
// navigated or the frame detached mid-resolution. The engine folds it into
// an ordinary not-found result rather than a hard error.
var ErrStaleContext = errors.New("stale page context")
