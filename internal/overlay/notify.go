package overlay

import (
	"context"
	"fmt"
	"strings"
)

// Kind selects a notification's visual treatment.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindAction  Kind = "action"
)

func (k Kind) color() string {
	switch k {
	case KindWarning:
		return "#f97316"
	case KindAction:
		return "#3b82f6"
	default:
		return "#22c55e"
	}
}

// Button is one notification action. Exactly one of Href or Emit
// should be set: Href navigates the page, Emit posts the payload back
// to the controller.
type Button struct {
	Text    string
	Href    string
	Emit    string
	Primary bool
}

// Notification is a transient, dismissible banner.
type Notification struct {
	Title   string
	Message string
	Kind    Kind
	Buttons []Button
	// AutoCloseMS removes the banner after the timeout; 0 keeps it
	// until dismissed.
	AutoCloseMS int
}

// Notify renders a notification, replacing any banner already shown.
func (r *Renderer) Notify(ctx context.Context, n Notification) error {
	if n.Kind == "" {
		n.Kind = KindInfo
	}
	if err := r.eval.Eval(ctx, r.notificationScript(n)); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	return nil
}

// NotifyExternalSite warns that the guide continues on another site.
func (r *Renderer) NotifyExternalSite(ctx context.Context, url string) error {
	return r.Notify(ctx, Notification{
		Title: "External Site",
		Message: fmt.Sprintf(`This guide continues on an external site:<br><a href="%s" target="_blank" style="color: white; text-decoration: underline;">%s</a>`,
			htmlEscape(url), htmlEscape(url)),
		Kind:        KindWarning,
		AutoCloseMS: 8000,
	})
}

// NotifyWrongPage tells the user which page the active step needs,
// with a one-click way to get there. Stays until acted on.
func (r *Renderer) NotifyWrongPage(ctx context.Context, expectedPath string) error {
	return r.Notify(ctx, Notification{
		Title:   "Wrong Page",
		Message: "This guide requires you to be on page: " + htmlEscape(expectedPath),
		Kind:    KindWarning,
		Buttons: []Button{{Text: "Go There Now", Href: expectedPath, Primary: true}},
	})
}

// NotifyMidFlow announces playback starting from the middle of the
// recording.
func (r *Renderer) NotifyMidFlow(ctx context.Context, stepNumber, totalSteps int) error {
	return r.Notify(ctx, Notification{
		Message:     fmt.Sprintf("Starting from step %d of %d", stepNumber, totalSteps),
		Kind:        KindInfo,
		AutoCloseMS: 4000,
	})
}

// NotifyResumed announces playback continuing after a reload or
// re-anchor.
func (r *Renderer) NotifyResumed(ctx context.Context, stepNumber, totalSteps int) error {
	return r.Notify(ctx, Notification{
		Message:     fmt.Sprintf("Continuing from step %d of %d", stepNumber, totalSteps),
		Kind:        KindInfo,
		AutoCloseMS: 4000,
	})
}

// NotifyOffPath warns that the user left the guided route and offers a
// way back.
func (r *Renderer) NotifyOffPath(ctx context.Context, returnPath string) error {
	return r.Notify(ctx, Notification{
		Title:   "Not on Guide Path",
		Message: "You have navigated away from the guide.",
		Kind:    KindAction,
		Buttons: []Button{
			{Text: "Return to Guide", Href: returnPath, Primary: true},
			{Text: "Cancel Guide", Emit: EventStop},
		},
	})
}

// NotifyStartPrompt asks the user to navigate to the page the guide
// starts from.
func (r *Renderer) NotifyStartPrompt(ctx context.Context, startPath string) error {
	return r.Notify(ctx, Notification{
		Title:   "Navigation Required",
		Message: "This guide starts on page: " + htmlEscape(startPath),
		Kind:    KindAction,
		Buttons: []Button{
			{Text: "Go to Page", Href: startPath, Primary: true},
			{Text: "Cancel Guide", Emit: EventStop},
		},
	})
}

// NotifyComplete celebrates a finished walkthrough.
func (r *Renderer) NotifyComplete(ctx context.Context) error {
	return r.Notify(ctx, Notification{
		Title:       "Guide Complete",
		Message:     "You have reached the end of this guide.",
		Kind:        KindInfo,
		AutoCloseMS: 4000,
	})
}

func (r *Renderer) notificationScript(n Notification) string {
	color := n.Kind.color()

	var content strings.Builder
	if n.Title != "" {
		content.WriteString(fmt.Sprintf(`<h3 style="margin-top: 0; color: white; font-size: 16px; margin-bottom: 8px;">%s</h3>`, htmlEscape(n.Title)))
	}
	bottomMargin := "0"
	if len(n.Buttons) > 0 {
		bottomMargin = "12px"
	}
	content.WriteString(fmt.Sprintf(`<p style="color: white; margin: 0; margin-bottom: %s;">%s</p>`, bottomMargin, n.Message))
	if len(n.Buttons) > 0 {
		content.WriteString(`<div style="display: flex; justify-content: flex-start; gap: 10px; margin-top: 12px;">`)
		for i, b := range n.Buttons {
			style := "background-color: rgba(255,255,255,0.2); color: white;"
			if b.Primary {
				style = fmt.Sprintf("background-color: white; color: %s; font-weight: bold;", color)
			}
			content.WriteString(fmt.Sprintf(`<button data-cf-btn="%d" style="%s border: none; padding: 8px 12px; border-radius: 6px; cursor: pointer; font-size: 13px;">%s</button>`,
				i, style, htmlEscape(b.Text)))
		}
		content.WriteString(`</div>`)
	}

	var actions strings.Builder
	for i, b := range n.Buttons {
		var body string
		switch {
		case b.Href != "":
			body = fmt.Sprintf("window.location.href = %s;", quote(b.Href))
		case b.Emit != "":
			body = fmt.Sprintf("if (window.%s) window.%s(%s);", BindingName, BindingName, quote(b.Emit))
		}
		actions.WriteString(fmt.Sprintf(`
  var btn%d = el.querySelector('[data-cf-btn="%d"]');
  if (btn%d) btn%d.onclick = function(){ %s el.remove(); };`, i, i, i, i, body))
	}

	autoClose := ""
	if n.AutoCloseMS > 0 {
		autoClose = fmt.Sprintf(`
  setTimeout(function(){
    el.style.opacity = '0';
    el.style.transition = 'opacity 0.5s ease';
    setTimeout(function(){ el.remove(); }, 500);
  }, %d);`, n.AutoCloseMS)
	}

	// Positioned beside the guide button, fading in from below.
	return fmt.Sprintf(`(function(){
  var prev = document.getElementById(%s);
  if (prev) prev.remove();
  var el = document.createElement('div');
  el.id = %s;
  var button = document.getElementById(%s);
  var left = button ? (button.offsetWidth + 30) : 20;
  el.style.cssText = 'position: fixed; bottom: 20px; left: ' + left + 'px;' +
    'max-width: 320px; background-color: %s; color: white; padding: 12px 16px;' +
    'border-radius: 8px; font-family: system-ui, -apple-system, sans-serif;' +
    'font-size: 14px; box-shadow: 0 4px 12px rgba(0, 0, 0, 0.15); z-index: 10000;' +
    'animation: cursor-flow-fade-in 0.3s ease;';
  el.innerHTML = %s;
  var close = document.createElement('button');
  close.innerHTML = '&times;';
  close.style.cssText = 'position: absolute; top: 8px; right: 8px; background: none;' +
    'border: none; font-size: 18px; cursor: pointer; color: rgba(255,255,255,0.8);' +
    'line-height: 1; padding: 0; width: 20px; height: 20px;';
  close.onclick = function(){ el.remove(); };
  el.appendChild(close);%s
  document.body.appendChild(el);%s
})()`, quote(NotificationID), quote(NotificationID), quote(StartButtonID),
		color, quote(content.String()), actions.String(), autoClose)
}
