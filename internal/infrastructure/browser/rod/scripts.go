package rod

// Page scripts. Each is a function expression evaluated by rod; element
// scripts run with `this` bound to the element.

const visibleHelper = `
	const isVisible = (el) => {
		if (!el || !el.getBoundingClientRect) return false;
		const r = el.getBoundingClientRect();
		const st = window.getComputedStyle(el);
		return r.width > 0 && r.height > 0 && st.visibility !== 'hidden' && st.display !== 'none' && st.opacity !== '0';
	};
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
`

const resolveScript = `(parts) => {` + visibleHelper + `
	let scopes = [document];
	for (const p of parts) {
		let found = [];
		for (const scope of scopes) {
			let cands = [];
			if (p.xpath) {
				const res = document.evaluate(p.xpath, scope, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
				for (let i = 0; i < res.snapshotLength; i++) cands.push(res.snapshotItem(i));
			} else {
				try {
					cands = Array.from(scope.querySelectorAll(p.css || '*'));
				} catch (e) {
					return null;
				}
			}
			if (p.text) {
				const want = norm(p.text);
				cands = cands.filter((el) => {
					const t = norm(el.innerText || el.textContent || el.value);
					return p.exact ? t === want : t.includes(want);
				});
				cands = cands.filter((el) => !cands.some((o) => o !== el && el.contains(o)));
			}
			if (p.visible) cands = cands.filter(isVisible);
			found.push(...cands);
		}
		if (found.length === 0) return null;
		scopes = found;
	}
	return scopes.find(isVisible) || scopes[0] || null;
}`

const clickScript = `async function () {
	this.scrollIntoView({block: 'center', inline: 'center'});
	await new Promise((r) => setTimeout(r, 100));
	const r = this.getBoundingClientRect();
	const inView = r.width > 0 && r.height > 0 && r.bottom > 0 && r.right > 0 &&
		r.top < window.innerHeight && r.left < window.innerWidth;
	if (!inView) return false;
	try {
		this.click();
	} catch (e) {
		const opts = {bubbles: true, cancelable: true, view: window};
		for (const type of ['pointerdown', 'mousedown', 'pointerup', 'mouseup', 'click']) {
			this.dispatchEvent(new MouseEvent(type, opts));
		}
	}
	return true;
}`

const forcedClickScript = `function () {
	const r = this.getBoundingClientRect();
	const opts = {
		bubbles: true, cancelable: true, composed: true, view: window, button: 0,
		clientX: r.left + r.width / 2, clientY: r.top + r.height / 2,
	};
	this.dispatchEvent(new PointerEvent('pointerdown', opts));
	this.dispatchEvent(new MouseEvent('mousedown', opts));
	if (typeof this.focus === 'function') this.focus();
	this.dispatchEvent(new PointerEvent('pointerup', opts));
	this.dispatchEvent(new MouseEvent('mouseup', opts));
	this.dispatchEvent(new MouseEvent('click', opts));
}`

const menuClickScript = `(term, containers) => {` + visibleHelper + `
	const want = norm(term);
	if (!want) return null;
	const wordRe = new RegExp('\\b' + want.replace(/[.*+?^${}()|[\]\\]/g, '\\$&') + '\\b');
	const matchers = [
		(t) => t === want,
		(t) => t.includes(want),
		(t) => wordRe.test(t),
	];
	const roots = [];
	for (const sel of containers) {
		try {
			document.querySelectorAll(sel).forEach((el) => { if (isVisible(el)) roots.push(el); });
		} catch (e) {}
	}
	for (const match of matchers) {
		const hits = [];
		for (const root of roots) {
			for (const el of root.querySelectorAll('*')) {
				if (!isVisible(el)) continue;
				const t = norm(el.innerText || el.textContent);
				if (t && t.length <= want.length + 40 && match(t)) hits.push(el);
			}
		}
		const innermost = hits.filter((el) => !hits.some((o) => o !== el && el.contains(o)));
		if (innermost.length > 0) return innermost[0];
	}
	return null;
}`

const modalsScript = `(selectors) => {` + visibleHelper + `
	const seen = new Set();
	const out = [];
	for (const sel of selectors) {
		let nodes = [];
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const el of nodes) {
			if (seen.has(el) || !isVisible(el)) continue;
			if (Array.from(seen).some((o) => o.contains(el))) continue;
			seen.add(el);
			const r = el.getBoundingClientRect();
			out.push({
				selector: sel,
				text: (el.innerText || '').trim().slice(0, 200),
				bounding_box: {x: r.x, y: r.y, width: r.width, height: r.height},
			});
		}
	}
	return out;
}`

const formsScript = `() => Array.from(document.forms).map((f) => ({
	action: f.getAttribute('action') || '',
	method: (f.getAttribute('method') || 'get').toLowerCase(),
	fields: Array.from(f.querySelectorAll('input, textarea, select'))
		.filter((i) => i.type !== 'hidden')
		.map((i) => ({
			name: i.name || i.id || '',
			type: i.type || i.tagName.toLowerCase(),
			required: !!i.required,
			placeholder: i.getAttribute('placeholder') || '',
		})),
}))`

const menuVisibleScript = `(selectors) => {` + visibleHelper + `
	for (const sel of selectors) {
		let nodes = [];
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const el of nodes) if (isVisible(el)) return true;
	}
	return false;
}`

const visibleTextScript = `() => document.body ? document.body.innerText : ''`

const htmlLengthScript = `() => document.documentElement ? document.documentElement.outerHTML.length : 0`

const disabledScript = `function () {
	return !!this.disabled || this.getAttribute('aria-disabled') === 'true';
}`

const valueScript = `function () {
	if ('value' in this) return String(this.value || '');
	return this.isContentEditable ? (this.innerText || '') : '';
}`

const modalFieldValueScript = `(containers) => {` + visibleHelper + `
	for (const sel of containers) {
		let nodes = [];
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const c of nodes) {
			if (!isVisible(c)) continue;
			for (const i of c.querySelectorAll('input, textarea, [contenteditable="true"]')) {
				const v = 'value' in i ? i.value : i.innerText;
				if (v) return String(v);
			}
		}
	}
	return '';
}`

const dispatchInputScript = `function () {
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
}`

const clearScript = `function () {
	if ('value' in this) {
		this.value = '';
	} else if (this.isContentEditable) {
		this.innerText = '';
	}
	this.dispatchEvent(new Event('input', {bubbles: true}));
}`

const textInputSelector = `input:not([type="hidden"]):not([type="checkbox"]):not([type="radio"]):not([type="submit"]):not([type="button"]), textarea, [contenteditable="true"]`

const containerInputScript = `(containers, terms, inputSel) => {` + visibleHelper + `
	const usable = (el) => isVisible(el) && !el.disabled && !el.readOnly;
	for (const sel of containers) {
		let nodes = [];
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const c of nodes) {
			if (!isVisible(c)) continue;
			const inputs = Array.from(c.querySelectorAll(inputSel)).filter(usable);
			for (const term of terms) {
				const t = term.toLowerCase();
				const hit = inputs.find((i) => ['placeholder', 'name', 'aria-label', 'data-testid', 'id']
					.some((a) => (i.getAttribute(a) || '').toLowerCase().includes(t)));
				if (hit) return hit;
			}
			if (terms.length === 0 && inputs.length > 0) return inputs[0];
		}
	}
	return null;
}`

const selectByValueScript = `function (value) {
	const want = String(value).toLowerCase();
	for (const o of this.options || []) {
		if (o.value.toLowerCase() === want || o.text.trim().toLowerCase() === want) {
			this.value = o.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

const scrollIntoViewScript = `function () {
	this.scrollIntoView({block: 'center', behavior: 'instant'});
}`

const scrollBottomScript = `() => window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`

const viewportScript = `() => ({width: window.innerWidth, height: window.innerHeight})`

const highlightScript = `function () {
	this.scrollIntoView({block: 'center', behavior: 'instant'});
	this.setAttribute('data-uistate-outline', this.style.outline || '');
	this.style.outline = '3px solid #e53935';
	this.style.outlineOffset = '2px';
	const r = this.getBoundingClientRect();
	return {x: r.x + window.scrollX, y: r.y + window.scrollY, width: r.width, height: r.height};
}`

const unhighlightScript = `() => {
	document.querySelectorAll('[data-uistate-outline]').forEach((el) => {
		el.style.outline = el.getAttribute('data-uistate-outline');
		el.style.outlineOffset = '';
		el.removeAttribute('data-uistate-outline');
	});
}`

const loginStateScript = `(oauthProviders) => {` + visibleHelper + `
	const email = Array.from(document.querySelectorAll('input[type="email"], input[name*="email" i], input[autocomplete="username"]')).some(isVisible);
	const password = Array.from(document.querySelectorAll('input[type="password"]')).some(isVisible);
	const text = norm(document.body ? document.body.innerText : '');
	const providers = oauthProviders.filter((p) =>
		text.includes('continue with ' + p) || text.includes('sign in with ' + p) || text.includes('log in with ' + p));
	return {email, password, providers};
}`

const documentSizeScript = `() => ({
	width: Math.max(document.documentElement.scrollWidth, window.innerWidth),
	height: Math.max(document.documentElement.scrollHeight, window.innerHeight),
})`
