package session

// Script bodies shared by drivers that lack a native primitive. Each one
// takes the XPath selector as arguments[0].

const xpathLookup = `var el = document.evaluate(arguments[0], document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
if (!el) { return null; }
`

// ScriptIsDisplayed returns true, false or null when no element matches.
const ScriptIsDisplayed = xpathLookup + `var s = window.getComputedStyle(el);
if (s.display === 'none' || s.visibility === 'hidden' || s.opacity === '0') { return false; }
var r = el.getBoundingClientRect();
return r.width > 0 && r.height > 0;`

// ScriptIsEnabled returns !disabled, or null when no element matches.
const ScriptIsEnabled = xpathLookup + `return !el.disabled;`

// ScriptIsSelected returns the selected/checked state, or null.
const ScriptIsSelected = xpathLookup + `return !!(el.selected || el.checked);`

// ScriptTagName returns the lower-case tag name, or null.
const ScriptTagName = xpathLookup + `return el.tagName.toLowerCase();`

// ScriptCenter scrolls the element into view and returns its viewport centre.
const ScriptCenter = xpathLookup + `el.scrollIntoView({block: 'center', inline: 'center'});
var r = el.getBoundingClientRect();
return {x: r.left + r.width / 2, y: r.top + r.height / 2};`

// ScriptScrollIntoView scrolls the element into view, returning false when missing.
const ScriptScrollIntoView = xpathLookup + `el.scrollIntoView({block: 'center', inline: 'center'});
return true;`

// ScriptDispatchMouse fires a synthetic mouse event named arguments[1].
const ScriptDispatchMouse = xpathLookup + `var r = el.getBoundingClientRect();
var opts = {bubbles: true, cancelable: true, view: window, clientX: r.left + r.width / 2, clientY: r.top + r.height / 2, button: arguments[1] === 'contextmenu' ? 2 : 0};
el.dispatchEvent(new MouseEvent(arguments[1], opts));
return true;`

// ScriptSelect picks an <option> of a <select>. arguments[1] is the mode
// ("attribute", "index" or "text"), arguments[2] the attribute name and
// arguments[3] the value to match.
const ScriptSelect = xpathLookup + `var opts = el.options || [];
for (var i = 0; i < opts.length; i++) {
  var o = opts[i];
  var hit = false;
  if (arguments[1] === 'index') { hit = i === Number(arguments[3]); }
  else if (arguments[1] === 'text') { hit = o.text.trim() === arguments[3]; }
  else { hit = o.getAttribute(arguments[2]) === arguments[3]; }
  if (hit) {
    el.selectedIndex = i;
    el.dispatchEvent(new Event('input', {bubbles: true}));
    el.dispatchEvent(new Event('change', {bubbles: true}));
    return true;
  }
}
return false;`

// ScriptDragAndDrop fires HTML5 drag events from arguments[0] onto arguments[1].
const ScriptDragAndDrop = xpathLookup + `var dst = document.evaluate(arguments[1], document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
if (!dst) { return null; }
var dt = new DataTransfer();
el.dispatchEvent(new DragEvent('dragstart', {bubbles: true, dataTransfer: dt}));
dst.dispatchEvent(new DragEvent('dragenter', {bubbles: true, dataTransfer: dt}));
dst.dispatchEvent(new DragEvent('dragover', {bubbles: true, dataTransfer: dt}));
dst.dispatchEvent(new DragEvent('drop', {bubbles: true, dataTransfer: dt}));
el.dispatchEvent(new DragEvent('dragend', {bubbles: true, dataTransfer: dt}));
return true;`

// ScriptReadyState returns document.readyState.
const ScriptReadyState = `return document.readyState;`

// ScriptScrollBy scrolls the window by arguments[0], arguments[1].
const ScriptScrollBy = `window.scrollBy(arguments[0], arguments[1]); return true;`

// ScriptOpenWindow opens arguments[0] with window features arguments[1].
const ScriptOpenWindow = `window.open(arguments[0], '_blank', arguments[1]); return true;`

// ScriptIsFrame reports whether arguments[0] is a frame with a reachable document.
const ScriptIsFrame = xpathLookup + `var tag = el.tagName.toLowerCase();
return (tag === 'iframe' || tag === 'frame') && !!el.contentDocument;`

// ScriptSameElement reports whether arguments[0] and arguments[1] resolve to
// the same node. Null when either is missing.
const ScriptSameElement = xpathLookup + `var other = document.evaluate(arguments[1], document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
if (!other) { return null; }
return el === other;`
