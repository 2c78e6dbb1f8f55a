// File: internal/resolve/scripts.go
package resolve

// The engine injects small JS collectors and actuators into the page. The
// collectors only harvest raw candidate data and tag elements with a
// temporary data-ce-index attribute for later targeting; all matching and
// scoring happens on the Go side. Tags are removed by cleanupScript at the
// end of a resolution.

// tagAttr is the temporary attribute used to address collected elements.
const tagAttr = "data-ce-index"

// jsHelpers is prepended to every collector. It defines visibility,
// chrome-exclusion and source-extraction helpers shared by the phases.
const jsHelpers = `
	var ceVisible = function (el) {
		var style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		var rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	var ceChrome = function (el) {
		var skip = ['menu', 'nav', 'header', 'footer', 'account', 'wishlist', 'favourite', 'guide', 'chart', 'logo', 'brand', 'breadcrumb'];
		var cls = ((el.className && el.className.toString) ? el.className.toString() : '').toLowerCase();
		var parentCls = (el.parentElement && el.parentElement.className && el.parentElement.className.toString) ? el.parentElement.className.toString().toLowerCase() : '';
		var href = (el.getAttribute && el.getAttribute('href') || '').toLowerCase();
		return skip.some(function (s) { return cls.indexOf(s) !== -1 || parentCls.indexOf(s) !== -1 || href.indexOf(s) !== -1; });
	};
	var ceTag = function (el) {
		if (!el.hasAttribute('` + tagAttr + `')) {
			window.__ceNextIndex = (window.__ceNextIndex || 0) + 1;
			el.setAttribute('` + tagAttr + `', String(window.__ceNextIndex));
		}
		return parseInt(el.getAttribute('` + tagAttr + `'), 10);
	};
	var ceRect = function (el) {
		var r = el.getBoundingClientRect();
		return { x: r.left, y: r.top, width: r.width, height: r.height };
	};
	var ceOptions = function (el) {
		var opts = [];
		if (el.tagName === 'SELECT') {
			for (var i = 0; i < el.options.length; i++) {
				var o = el.options[i];
				opts.push({ value: o.value, text: (o.text || '').trim(), disabled: !!o.disabled });
			}
		}
		return opts;
	};
	var ceControl = function (el) {
		var hint = ((el.getAttribute('name') || '') + ' ' + (el.id || '') + ' ' + ((el.className && el.className.toString) ? el.className.toString() : '')).toLowerCase();
		var quantityish = hint.indexOf('quantity') !== -1 || hint.indexOf('qty') !== -1;
		if (el.tagName === 'SELECT') return quantityish ? 'quantity-stepper' : 'native-select';
		if (el.tagName === 'INPUT' && (el.type === 'number' || quantityish)) return 'quantity-stepper';
		var popup = el.getAttribute('aria-haspopup');
		if (el.getAttribute('role') === 'combobox' || popup === 'listbox' || popup === 'true') return 'custom-dropdown';
		return 'clickable';
	};
	var cePromote = function (el) {
		if (el.tagName !== 'IMG') return el;
		var parent = el.closest('button, a, [role="button"], [onclick], label, div[class*="swatch"], div[class*="color"]');
		return parent || el;
	};
`

// overlayCollectScript is the phase 1 collector: an attribute scan over
// interactive and swatch-like markup. Cheapest, highest precision; the
// default path for image-based color swatches.
const overlayCollectScript = `(args) => {
	` + jsHelpers + `
	var root = document;
	if (args.scope) {
		var scoped = document.querySelector(args.scope);
		if (scoped) root = scoped;
	}
	var selectors = 'button, a[href], select, input, label, [role="button"], [role="option"], [role="radio"], [onclick], img[alt], [data-value], [data-color], [data-size], [data-label], div[class*="swatch"], span[class*="swatch"]';
	var seen = root.querySelectorAll(selectors);
	var candidates = [];
	var total = 0;
	for (var i = 0; i < seen.length; i++) {
		var el = seen[i];
		if (!ceVisible(el) || ceChrome(el)) continue;
		total++;
		var dataAttr = '';
		for (var a = 0; a < el.attributes.length; a++) {
			var attr = el.attributes[a];
			if (attr.name.indexOf('data-') === 0 && attr.name !== '` + tagAttr + `' && attr.value) {
				dataAttr = dataAttr ? dataAttr + ' ' + attr.value : attr.value;
			}
		}
		var inner = el.querySelector ? el.querySelector('img[alt]') : null;
		var alt = el.getAttribute('alt') || (inner ? inner.getAttribute('alt') : '') || '';
		var aria = el.getAttribute('aria-label') || '';
		var title = el.getAttribute('title') || '';
		if (!alt && !aria && !title && !dataAttr) continue;
		var target = cePromote(el);
		candidates.push({
			index: ceTag(target),
			tag: target.tagName,
			control: ceControl(target),
			alt: alt,
			ariaLabel: aria,
			title: title,
			text: '',
			dataAttr: dataAttr,
			group: target.getAttribute('name') || '',
			disabled: !!(target.disabled || target.getAttribute('aria-disabled') === 'true'),
			rect: ceRect(target),
			options: ceOptions(target)
		});
	}
	return { candidates: candidates, total: total };
}`

// domTreeCollectScript is the phase 2 collector: a walk of the subtree
// bounded by the product container, harvesting text content and label-for
// relationships.
const domTreeCollectScript = `(args) => {
	` + jsHelpers + `
	var root = document;
	if (args.scope) {
		var scoped = document.querySelector(args.scope);
		if (scoped) root = scoped;
	}
	var candidates = [];
	var total = 0;
	var push = function (target, text, control, group) {
		candidates.push({
			index: ceTag(target),
			tag: target.tagName,
			control: control,
			alt: '',
			ariaLabel: '',
			title: '',
			text: text,
			dataAttr: '',
			group: group || '',
			disabled: !!(target.disabled || target.getAttribute('aria-disabled') === 'true'),
			rect: ceRect(target),
			options: ceOptions(target)
		});
	};
	// Label-for relationships: acting on the label drives the control.
	var labels = root.querySelectorAll('label[for]');
	for (var i = 0; i < labels.length; i++) {
		var label = labels[i];
		if (!ceVisible(label) || ceChrome(label)) continue;
		var control = document.getElementById(label.htmlFor);
		if (!control) continue;
		total++;
		var text = (label.textContent || '').trim();
		var img = label.querySelector('img[alt]');
		if (!text && img) text = img.getAttribute('alt');
		if (text) push(label, text, control.tagName === 'SELECT' ? 'native-select' : 'clickable');
	}
	// Leaf-ish interactive text nodes inside the container.
	var seen = root.querySelectorAll('button, a[href], option, li, span, label, select');
	for (var j = 0; j < seen.length; j++) {
		var el = seen[j];
		if (!ceVisible(el) || ceChrome(el)) continue;
		var t = (el.textContent || '').trim();
		if (!t || t.length > 64) continue;
		total++;
		var target = el.tagName === 'OPTION' && el.parentElement ? el.parentElement : el;
		push(cePromote(target), t, ceControl(target), target.getAttribute('name') || '');
	}
	return { candidates: candidates, total: total };
}`

// patternCollectScript is the phase 3 collector: the loosest heuristic.
// Class-name hints, shared-name radio groups and clustered siblings, for
// markup the first two phases miss.
const patternCollectScript = `(args) => {
	` + jsHelpers + `
	var candidates = [];
	var total = 0;
	var push = function (target, text, dataAttr, group) {
		candidates.push({
			index: ceTag(target),
			tag: target.tagName,
			control: ceControl(target),
			alt: '',
			ariaLabel: target.getAttribute('aria-label') || '',
			title: '',
			text: text,
			dataAttr: dataAttr,
			group: group || '',
			disabled: !!(target.disabled || target.getAttribute('aria-disabled') === 'true'),
			rect: ceRect(target),
			options: ceOptions(target)
		});
	};
	// Class-name hints.
	var hinted = document.querySelectorAll('[class*="size"], [class*="color"], [class*="colour"], [class*="swatch"], [class*="variant"]');
	for (var i = 0; i < hinted.length; i++) {
		var el = hinted[i];
		if (!ceVisible(el) || ceChrome(el)) continue;
		var t = (el.textContent || '').trim();
		if (t.length > 64) t = '';
		var dataAttr = '';
		for (var a = 0; a < el.attributes.length; a++) {
			var attr = el.attributes[a];
			if (attr.name.indexOf('data-') === 0 && attr.name !== '` + tagAttr + `' && attr.value) {
				dataAttr = dataAttr ? dataAttr + ' ' + attr.value : attr.value;
			}
		}
		if (!t && !dataAttr) continue;
		total++;
		push(cePromote(el), t, dataAttr);
	}
	// Shared-name radio groups: the label or value carries the variant.
	var radios = document.querySelectorAll('input[type="radio"][name]');
	for (var r = 0; r < radios.length; r++) {
		var radio = radios[r];
		if (ceChrome(radio)) continue;
		total++;
		var text = radio.value || '';
		var wrap = radio.closest('label');
		if (wrap) {
			var wt = (wrap.textContent || '').trim();
			if (wt) text = wt;
		} else if (radio.id) {
			var lbl = document.querySelector('label[for="' + radio.id + '"]');
			if (lbl) {
				var lt = (lbl.textContent || '').trim();
				if (lt) text = lt;
			}
		}
		if (!text) continue;
		push(wrap || radio, text, '', radio.getAttribute('name'));
	}
	return { candidates: candidates, total: total };
}`

// containerProbeScript finds the dominant product panel once per
// resolution, so phase 2 avoids matching header/nav/footer chrome. No body
// fallback: a null scope searches the whole document with chrome
// exclusions instead.
const containerProbeScript = `() => {
	var selectors = [
		'[data-testid="product-container"]',
		'.product-detail',
		'.product-main',
		'#product-main',
		'.pdp-main',
		'.product-info-main',
		'main'
	];
	for (var i = 0; i < selectors.length; i++) {
		var el = document.querySelector(selectors[i]);
		if (el && el.offsetHeight > 100) return selectors[i];
	}
	return null;
}`

// inspectScript reports the geometry and interactability of one tagged
// element: bounding box, viewport visibility, enabled state, and occlusion
// (is the node at the element's center the element itself or a relative).
const inspectScript = `(args) => {
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { found: false };
	var r = el.getBoundingClientRect();
	var vw = window.innerWidth;
	var vh = window.innerHeight;
	var center = { x: r.left + r.width / 2, y: r.top + r.height / 2 };
	var inViewport = r.width > 0 && r.height > 0 && center.x >= 0 && center.x <= vw && center.y >= 0 && center.y <= vh;
	var disabled = el.disabled === true || el.getAttribute('aria-disabled') === 'true';
	var obscured = false;
	if (inViewport) {
		var hit = document.elementFromPoint(center.x, center.y);
		obscured = !!hit && hit !== el && !el.contains(hit) && !hit.contains(el);
	}
	return {
		found: true,
		rect: { x: r.left, y: r.top, width: r.width, height: r.height },
		viewport: { width: vw, height: vh },
		center: center,
		inViewport: inViewport,
		disabled: disabled,
		obscured: obscured
	};
}`

// scrollByScript scrolls the window by a vertical delta. Instant, not
// smooth: coordinates are recomputed by a fresh inspect afterwards.
const scrollByScript = `(args) => {
	window.scrollBy({ top: args.top, left: 0, behavior: 'instant' });
	return { ok: true };
}`

// selectNativeScript sets a native select by matching either option value
// or option text against the normalized target, then fires input+change.
const selectNativeScript = `(args) => {
	var norm = function (t) { return (t || '').toLowerCase().trim().replace(/[-_\s]+/g, ''); };
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { ok: false };
	if (el.tagName !== 'SELECT') {
		var inner = el.querySelector('select');
		if (!inner) return { ok: false };
		el = inner;
	}
	for (var i = 0; i < el.options.length; i++) {
		var opt = el.options[i];
		if (opt.disabled) continue;
		var v = norm(opt.value);
		var t = norm(opt.text);
		if (v === args.normalized || t === args.normalized || (t && t.indexOf(args.normalized) !== -1)) {
			el.value = opt.value;
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return { ok: true, text: (opt.text || '').trim() };
		}
	}
	return { ok: false };
}`

// dropdownOpenScript clicks a custom dropdown opener.
const dropdownOpenScript = `(args) => {
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { ok: false };
	el.click();
	return { ok: true };
}`

// dropdownSelectScript picks the option matching the target text from the
// newly revealed list of a custom dropdown.
const dropdownSelectScript = `(args) => {
	var norm = function (t) { return (t || '').toLowerCase().trim().replace(/[-_\s]+/g, ''); };
	var visible = function (el) {
		var style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		var rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	var options = document.querySelectorAll('[role="option"], li, .option, .dropdown-item, [data-value]');
	for (var i = 0; i < options.length; i++) {
		var opt = options[i];
		if (!visible(opt)) continue;
		var texts = [opt.textContent, opt.getAttribute('data-value'), opt.getAttribute('aria-label')];
		for (var j = 0; j < texts.length; j++) {
			var n = norm(texts[j]);
			if (!n) continue;
			if (n === args.normalized || n.indexOf(args.normalized) !== -1) {
				opt.click();
				return { ok: true, text: (opt.textContent || '').trim() };
			}
		}
	}
	return { ok: false };
}`

// quantityScript drives a quantity stepper: a preset option on a select,
// or a direct numeric input with input+change events.
const quantityScript = `(args) => {
	var norm = function (t) { return (t || '').toLowerCase().trim().replace(/[-_\s]+/g, ''); };
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { ok: false };
	if (el.tagName === 'SELECT') {
		for (var i = 0; i < el.options.length; i++) {
			var opt = el.options[i];
			if (opt.disabled) continue;
			if (norm(opt.value) === args.normalized || norm(opt.text) === args.normalized) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', { bubbles: true }));
				return { ok: true, text: (opt.text || '').trim() };
			}
		}
		return { ok: false };
	}
	if (el.tagName === 'INPUT') {
		el.value = args.value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return { ok: true, text: args.value };
	}
	return { ok: false };
}`

// domClickScript performs a DOM-level click on a tagged element. Used
// inside child frames, where coordinate clicks cannot reach, and as the
// caller's last resort after the controller gives up.
const domClickScript = `(args) => {
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { ok: false };
	el.click();
	return { ok: true };
}`

// syntheticClickScript dispatches mousedown/mouseup/click MouseEvents at
// the element's center.
const syntheticClickScript = `(args) => {
	var el = document.querySelector('[` + tagAttr + `="' + args.index + '"]');
	if (!el) return { ok: false };
	var r = el.getBoundingClientRect();
	var x = r.left + r.width / 2;
	var y = r.top + r.height / 2;
	var fire = function (type) {
		el.dispatchEvent(new MouseEvent(type, { bubbles: true, cancelable: true, view: window, clientX: x, clientY: y }));
	};
	fire('mousedown');
	fire('mouseup');
	fire('click');
	return { ok: true };
}`

// verifyScript is the independent post-action state check. First match
// wins: (a) a checked input whose label or image matches the target,
// (b) generic selected/active/chosen markers whose content matches.
const verifyScript = `(args) => {
	var norm = function (t) { return (t || '').toLowerCase().trim().replace(/[-_\s]+/g, ''); };
	var match = function (t) {
		var n = norm(t);
		if (!n) return false;
		if (n === args.normalized) return true;
		if (args.numericOnly) return false;
		return n.indexOf(args.normalized) !== -1;
	};
	var imgAlts = function (el) {
		var out = [];
		var imgs = el.querySelectorAll ? el.querySelectorAll('img[alt]') : [];
		for (var i = 0; i < imgs.length; i++) out.push(imgs[i].getAttribute('alt'));
		return out;
	};
	// (a) element-specific selected-state signals.
	var checked = document.querySelectorAll('input:checked');
	for (var c = 0; c < checked.length; c++) {
		var input = checked[c];
		var texts = [input.value, input.getAttribute('aria-label')];
		if (input.id) {
			var lbl = document.querySelector('label[for="' + input.id + '"]');
			if (lbl) {
				texts.push(lbl.textContent);
				texts = texts.concat(imgAlts(lbl));
			}
		}
		var wrap = input.closest('label');
		if (wrap) {
			texts.push(wrap.textContent);
			texts = texts.concat(imgAlts(wrap));
		}
		for (var t = 0; t < texts.length; t++) {
			if (match(texts[t])) {
				return { verified: true, source: 'checked-input', text: (texts[t] || '').trim() };
			}
		}
	}
	// (b) generic selected/active markers anywhere in scope.
	var indicators = document.querySelectorAll('.selected, .active, .chosen, .current, .is-selected, .is-active, .is-chosen, [aria-selected="true"], [aria-pressed="true"], [aria-checked="true"], [data-selected="true"]');
	for (var i = 0; i < indicators.length; i++) {
		var el = indicators[i];
		var sources = [el.textContent, el.value, el.getAttribute('aria-label'), el.getAttribute('title'), el.getAttribute('data-value'), el.getAttribute('data-label')];
		sources = sources.concat(imgAlts(el));
		for (var s = 0; s < sources.length; s++) {
			if (match(sources[s])) {
				return { verified: true, source: 'selected-state', text: (sources[s] || '').trim() };
			}
		}
	}
	return { verified: false };
}`

// discoveryScript is the last-resort optimistic match: the loosest
// containment over clickable elements, clicking the first hit.
const discoveryScript = `(args) => {
	var norm = function (t) { return (t || '').toLowerCase().trim().replace(/[-_\s]+/g, ''); };
	var visible = function (el) {
		var style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		var rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	var candidates = document.querySelectorAll('button, a, [role="button"], [onclick], [data-label], [class*="size"], [class*="color"], [class*="swatch"]');
	for (var i = 0; i < candidates.length; i++) {
		var el = candidates[i];
		if (!visible(el)) continue;
		var texts = [el.textContent, el.getAttribute('data-label'), el.getAttribute('title'), el.getAttribute('aria-label')];
		var img = el.querySelector ? el.querySelector('img[alt]') : null;
		if (img) texts.push(img.getAttribute('alt'));
		for (var j = 0; j < texts.length; j++) {
			var n = norm(texts[j]);
			if (!n) continue;
			if (n.indexOf(args.normalized) !== -1 || (n.length >= 3 && args.normalized.indexOf(n) !== -1)) {
				el.scrollIntoView({ block: 'center', behavior: 'instant' });
				el.click();
				return { found: true, clicked: true, text: (texts[j] || '').trim() };
			}
		}
	}
	return { found: false };
}`

// cleanupScript removes all temporary tags left by the collectors.
const cleanupScript = `() => {
	var tagged = document.querySelectorAll('[` + tagAttr + `]');
	for (var i = 0; i < tagged.length; i++) {
		tagged[i].removeAttribute('` + tagAttr + `');
	}
	return { removed: tagged.length };
}`
