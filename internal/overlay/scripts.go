package overlay

import "fmt"

// Script builders. Each singleton script removes any prior node with
// the same id before inserting, so re-running them is harmless.

func (r *Renderer) stylesScript() string {
	css := `@keyframes cursor-flow-pulse {
  0% { box-shadow: 0 0 0 0 rgba(34, 197, 94, 0.4); }
  70% { box-shadow: 0 0 0 10px rgba(34, 197, 94, 0); }
  100% { box-shadow: 0 0 0 0 rgba(34, 197, 94, 0); }
}
@keyframes cursor-flow-fade-in {
  from { opacity: 0; transform: translateY(20px); }
  to { opacity: 1; transform: translateY(0); }
}`
	return fmt.Sprintf(`(function(){
  var prev = document.getElementById(%s);
  if (prev) prev.remove();
  var style = document.createElement('style');
  style.id = %s;
  style.textContent = %s;
  document.head.appendChild(style);
})()`, quote(StylesID), quote(StylesID), quote(css))
}

func (r *Renderer) cursorScript() string {
	containerCSS := fmt.Sprintf(`position: fixed;
pointer-events: none;
z-index: 9999;
transition: left %dms, top %dms;
transition-timing-function: cubic-bezier(0.2, 0.8, 0.2, 1);
display: none;
align-items: center;
gap: 0;`, r.cfg.AnimationMS, r.cfg.AnimationMS)
	dotCSS := fmt.Sprintf(`width: 20px;
height: 20px;
border-radius: 50%%;
background-color: %s;
opacity: 0.8;
box-shadow: 0 0 10px rgba(34, 197, 94, 0.5);
flex: none;`, r.cfg.CursorColor)
	textCSS := fmt.Sprintf(`background-color: #ffffff;
border: 2px solid %s;
border-radius: 6px;
padding: 6px 10px;
font-family: system-ui, -apple-system, sans-serif;
font-size: 13px;
max-width: 220px;
box-shadow: 0 2px 8px rgba(0, 0, 0, 0.15);
margin-left: 1px;
white-space: normal;
line-height: 1.3;`, r.cfg.CursorColor)
	return fmt.Sprintf(`(function(){
  var prev = document.getElementById(%s);
  if (prev) prev.remove();
  var c = document.createElement('div');
  c.id = %s;
  c.style.cssText = %s;
  var dot = document.createElement('div');
  dot.style.cssText = %s;
  var text = document.createElement('div');
  text.id = %s;
  text.style.cssText = %s;
  text.textContent = 'Click this element to continue';
  c.appendChild(dot);
  c.appendChild(text);
  document.body.appendChild(c);
})()`, quote(CursorID), quote(CursorID), quote(containerCSS),
		quote(dotCSS), quote(CursorTextID), quote(textCSS))
}

func (r *Renderer) highlightScript() string {
	css := fmt.Sprintf(`position: fixed;
pointer-events: none;
z-index: 9997;
background-color: %s;
border: 2px solid %s;
border-radius: 4px;
box-shadow: 0 0 0 4px rgba(34, 197, 94, 0.2);
display: none;`, r.cfg.HighlightColor, r.cfg.HighlightBorderColor)
	return fmt.Sprintf(`(function(){
  var prev = document.getElementById(%s);
  if (prev) prev.remove();
  var h = document.createElement('div');
  h.id = %s;
  h.style.cssText = %s;
  document.body.appendChild(h);
})()`, quote(HighlightID), quote(HighlightID), quote(css))
}

func (r *Renderer) startButtonScript(label string) string {
	css := fmt.Sprintf(`position: fixed;
bottom: 20px;
left: 20px;
padding: 10px 15px;
background-color: %s;
color: white;
border: none;
border-radius: 20px;
font-family: system-ui, -apple-system, sans-serif;
font-size: 14px;
font-weight: bold;
cursor: pointer;
box-shadow: 0 2px 10px rgba(0, 0, 0, 0.2);
z-index: 9998;
transition: transform 0.2s, background-color 0.2s;`, r.cfg.ButtonColor)
	return fmt.Sprintf(`(function(){
  var prev = document.getElementById(%s);
  if (prev) prev.remove();
  var b = document.createElement('button');
  b.id = %s;
  b.textContent = %s;
  b.style.cssText = %s;
  b.onmouseover = function(){ b.style.transform = 'scale(1.05)'; };
  b.onmouseout = function(){ b.style.transform = 'scale(1)'; };
  b.onclick = function(){ if (window.%s) window.%s(%s); };
  document.body.appendChild(b);
})()`, quote(StartButtonID), quote(StartButtonID), quote(label), quote(css),
		BindingName, BindingName, quote(EventToggle))
}

// pointCursorFn positions the cursor at the node's bottom-right corner
// and swaps in the label markup.
func (r *Renderer) pointCursorFn(labelHTML string) string {
	return fmt.Sprintf(`function(el){
  var c = document.getElementById(%s);
  if (!el || !c) return;
  var rect = el.getBoundingClientRect();
  c.style.display = 'flex';
  c.style.left = rect.right + 'px';
  c.style.top = rect.bottom + 'px';
  var text = document.getElementById(%s);
  if (text) text.innerHTML = %s;
}`, quote(CursorID), quote(CursorTextID), quote(labelHTML))
}

// highlightFn positions the highlight box 4px outside the node, starts
// the pulse, scrolls the node into view and (re)targets the
// frame-by-frame tracking loop. The loop handle lives in
// window.__cursorFlowTrack; only one loop ever runs.
func (r *Renderer) highlightFn() string {
	return fmt.Sprintf(`function(el){
  var h = document.getElementById(%s);
  if (!el || !h) return;
  window.__cursorFlowTarget = el;
  var place = function(rect){
    h.style.position = 'fixed';
    h.style.left = (rect.left - 4) + 'px';
    h.style.top = (rect.top - 4) + 'px';
    h.style.width = (rect.width + 8) + 'px';
    h.style.height = (rect.height + 8) + 'px';
    h.style.display = 'block';
  };
  place(el.getBoundingClientRect());
  h.style.animation = 'cursor-flow-pulse 1.5s infinite';
  if (el.scrollIntoView) {
    try { el.scrollIntoView({ behavior: 'smooth', block: 'center' }); } catch (e) {}
  }
  if (window.__cursorFlowTrack) return;
  var step = function(){
    if (!window.__cursorFlowTrack) return;
    var t = window.__cursorFlowTarget;
    var box = document.getElementById(%s);
    if (t && box) place(t.getBoundingClientRect());
    window.__cursorFlowTrack = requestAnimationFrame(step);
  };
  window.__cursorFlowTrack = requestAnimationFrame(step);
}`, quote(HighlightID), quote(HighlightID))
}

func (r *Renderer) hideGuidesScript() string {
	return fmt.Sprintf(`(function(){
  if (window.__cursorFlowTrack) {
    cancelAnimationFrame(window.__cursorFlowTrack);
    window.__cursorFlowTrack = null;
  }
  window.__cursorFlowTarget = null;
  var c = document.getElementById(%s);
  if (c) c.style.display = 'none';
  var h = document.getElementById(%s);
  if (h) h.style.display = 'none';
})()`, quote(CursorID), quote(HighlightID))
}

func (r *Renderer) removeAllScript() string {
	return fmt.Sprintf(`(function(){
  if (window.__cursorFlowTrack) {
    cancelAnimationFrame(window.__cursorFlowTrack);
    window.__cursorFlowTrack = null;
  }
  window.__cursorFlowTarget = null;
  [%s, %s, %s, %s, %s].forEach(function(id){
    var el = document.getElementById(id);
    if (el) el.remove();
  });
})()`, quote(CursorID), quote(HighlightID), quote(StartButtonID),
		quote(NotificationID), quote(StylesID))
}
