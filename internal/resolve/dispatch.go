// File: internal/resolve/dispatch.go
package resolve

import (
	"context"

	"go.uber.org/zap"
)

// actionReply is the common result shape of the actuator scripts.
type actionReply struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// Dispatcher routes a matched candidate to the interaction suited to its
// control kind. Routing is a closed match over ControlKind; whatever the
// typed route cannot handle degrades to the safe click loop. Dispatch never
// checks its own effect, the verifier does that independently.
type Dispatcher struct {
	driver         Driver
	clicker        *SafeClicker
	log            *zap.Logger
	dropdownSettle Backoff
	sleeper        Sleeper
}

func NewDispatcher(driver Driver, clicker *SafeClicker, log *zap.Logger, dropdownSettle Backoff, sleeper Sleeper) *Dispatcher {
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	return &Dispatcher{driver: driver, clicker: clicker, log: log, dropdownSettle: dropdownSettle, sleeper: sleeper}
}

type selectArgs struct {
	Index      int    `json:"index"`
	Normalized string `json:"normalized"`
}

type quantityArgs struct {
	Index      int    `json:"index"`
	Value      string `json:"value"`
	Normalized string `json:"normalized"`
}

// Dispatch performs the interaction for one candidate. On success the
// candidate's MatchedText is refined to the text the control actually
// settled on, when the actuator reports one.
func (d *Dispatcher) Dispatch(ctx context.Context, spec TargetSpec, c *CandidateElement) (ActionOutcome, error) {
	switch c.ControlKind {
	case ControlNativeSelect:
		return d.nativeSelect(ctx, spec, c)
	case ControlCustomDropdown:
		return d.customDropdown(ctx, spec, c)
	case ControlQuantityStepper:
		return d.quantity(ctx, spec, c)
	default:
		return d.clicker.Click(ctx, c)
	}
}

func (d *Dispatcher) nativeSelect(ctx context.Context, spec TargetSpec, c *CandidateElement) (ActionOutcome, error) {
	var res actionReply
	args := selectArgs{Index: c.Index, Normalized: spec.NormalizedValue}
	if err := d.driver.Evaluate(ctx, c.FrameID, selectNativeScript, args, &res); err != nil {
		return ActionOutcome{}, err
	}
	if !res.OK {
		d.log.Debug("no matching option in select, degrading to click", zap.Int("index", c.Index))
		return d.clicker.Click(ctx, c)
	}
	if res.Text != "" {
		c.MatchedText = res.Text
	}
	return ActionOutcome{Attempted: true, Succeeded: true, Method: MethodNativeEvent}, nil
}

func (d *Dispatcher) customDropdown(ctx context.Context, spec TargetSpec, c *CandidateElement) (ActionOutcome, error) {
	var opened actionReply
	if err := d.driver.Evaluate(ctx, c.FrameID, dropdownOpenScript, indexArgs{Index: c.Index}, &opened); err != nil {
		return ActionOutcome{}, err
	}
	if !opened.OK {
		return d.clicker.Click(ctx, c)
	}
	// Give the option list its open animation before scanning it.
	if err := d.sleeper.Sleep(ctx, d.dropdownSettle.Interval); err != nil {
		return ActionOutcome{}, err
	}
	var picked actionReply
	args := selectArgs{Normalized: spec.NormalizedValue}
	if err := d.driver.Evaluate(ctx, c.FrameID, dropdownSelectScript, args, &picked); err != nil {
		return ActionOutcome{}, err
	}
	if !picked.OK {
		d.log.Debug("dropdown opened but option not found", zap.Int("index", c.Index))
		return ActionOutcome{Attempted: true, Succeeded: false, Method: MethodNativeEvent}, nil
	}
	if picked.Text != "" {
		c.MatchedText = picked.Text
	}
	return ActionOutcome{Attempted: true, Succeeded: true, Method: MethodNativeEvent}, nil
}

func (d *Dispatcher) quantity(ctx context.Context, spec TargetSpec, c *CandidateElement) (ActionOutcome, error) {
	var res actionReply
	args := quantityArgs{Index: c.Index, Value: spec.RawValue, Normalized: spec.NormalizedValue}
	if err := d.driver.Evaluate(ctx, c.FrameID, quantityScript, args, &res); err != nil {
		return ActionOutcome{}, err
	}
	if !res.OK {
		return ActionOutcome{Attempted: true, Succeeded: false, Method: MethodNativeEvent}, nil
	}
	if res.Text != "" {
		c.MatchedText = res.Text
	}
	return ActionOutcome{Attempted: true, Succeeded: true, Method: MethodNativeEvent}, nil
}
