package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mafredri/cdp/protocol/runtime"
)

// Eval runs a script in the page for its side effects.
func (c *Client) Eval(ctx context.Context, script string) error {
	_, err := c.evaluate(ctx, script)
	return err
}

// EvalResult runs a script and returns its string value.
func (c *Client) EvalResult(ctx context.Context, script string) (string, error) {
	raw, err := c.evaluate(ctx, script)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw), nil
	}
	return s, nil
}

// EvalOn calls fnScript, a function expression, with the referenced
// node as its argument. A stale ref resolves to undefined and the
// function sees null, mirroring plain DOM lookups that miss.
func (c *Client) EvalOn(ctx context.Context, ref string, fnScript string) error {
	script := fmt.Sprintf("(%s)((window.__cfNodes || {})[%q] || null)", fnScript, ref)
	return c.Eval(ctx, script)
}

func (c *Client) evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	args := runtime.NewEvaluateArgs(script).SetReturnByValue(true)
	reply, err := c.client.Runtime.Evaluate(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if reply.ExceptionDetails != nil {
		return nil, fmt.Errorf("evaluate: page threw: %s", reply.ExceptionDetails.Text)
	}
	return reply.Result.Value, nil
}

// ArmClick installs a one-shot click listener on the referenced node.
// The listener reports through the page binding and removes itself;
// arming a new node disarms the previous one.
func (c *Client) ArmClick(ctx context.Context, ref string) error {
	fn := `function(el) {
		if (window.__cfArmed && window.__cfArmedFn) {
			window.__cfArmed.removeEventListener("click", window.__cfArmedFn);
			window.__cfArmed = null;
			window.__cfArmedFn = null;
		}
		if (!el) return;
		var fire = function() {
			el.removeEventListener("click", fire);
			window.__cfArmed = null;
			window.__cfArmedFn = null;
			if (window.__cursorFlowEmit) window.__cursorFlowEmit("target");
		};
		el.addEventListener("click", fire);
		window.__cfArmed = el;
		window.__cfArmedFn = fire;
	}`
	return c.EvalOn(ctx, ref, fn)
}

// DisarmClick removes the armed listener, if any.
func (c *Client) DisarmClick(ctx context.Context) error {
	return c.Eval(ctx, `(function() {
		if (window.__cfArmed && window.__cfArmedFn) {
			window.__cfArmed.removeEventListener("click", window.__cfArmedFn);
		}
		window.__cfArmed = null;
		window.__cfArmedFn = null;
	})()`)
}
