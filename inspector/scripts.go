package inspector

// Named page-side helper routines. These are the whole of the FFI surface
// into the page's scripting environment: a fixed, versioned set of
// functions with stable JSON contracts, never ad hoc script text composed
// at call sites. Marker attributes make element identity stable across
// separate protocol calls; each routine addresses elements only through
// the call-unique marker attribute it is handed.

// scriptMarkElements tags every selector match (up to limit) with the
// marker attribute, valued by match index. Returns match counts. An
// invalid selector makes querySelectorAll throw a SyntaxError, which
// surfaces as an evaluation error.
const scriptMarkElements = `(selector, attr, limit) => {
	const nodes = document.querySelectorAll(selector);
	const marked = Math.min(nodes.length, limit);
	for (let i = 0; i < marked; i++) {
		nodes[i].setAttribute(attr, String(i));
	}
	return { total: nodes.length, marked };
}`

// scriptElementMetrics reads the bounding rect, edge widths and visibility
// of one marked element. Returns null when the marker no longer resolves.
const scriptElementMetrics = `(attr, idx) => {
	const el = document.querySelector('[' + attr + '="' + idx + '"]');
	if (!el) return null;
	const r = el.getBoundingClientRect();
	const s = getComputedStyle(el);
	const px = v => parseFloat(v) || 0;
	const visible = s.display !== 'none' && s.visibility !== 'hidden' &&
		(el.offsetWidth > 0 || el.offsetHeight > 0 || el.getClientRects().length > 0);
	return {
		rect: { x: r.x, y: r.y, width: r.width, height: r.height },
		margin: { top: px(s.marginTop), right: px(s.marginRight), bottom: px(s.marginBottom), left: px(s.marginLeft) },
		border: { top: px(s.borderTopWidth), right: px(s.borderRightWidth), bottom: px(s.borderBottomWidth), left: px(s.borderLeftWidth) },
		padding: { top: px(s.paddingTop), right: px(s.paddingRight), bottom: px(s.paddingBottom), left: px(s.paddingLeft) },
		visible
	};
}`

// scriptSetInlineStyle applies property/value pairs to a marked element's
// inline style. Returns false when the marker no longer resolves.
const scriptSetInlineStyle = `(attr, idx, edits) => {
	const el = document.querySelector('[' + attr + '="' + idx + '"]');
	if (!el) return false;
	for (const [prop, value] of Object.entries(edits)) {
		el.style.setProperty(prop, value);
	}
	return true;
}`

// scriptCenterElement scrolls one marked element to the viewport center
// and reports the resulting scroll offsets.
const scriptCenterElement = `(attr, idx) => {
	const el = document.querySelector('[' + attr + '="' + idx + '"]');
	if (!el) return null;
	el.scrollIntoView({ block: 'center', inline: 'center', behavior: 'instant' });
	return { scrollX: window.scrollX, scrollY: window.scrollY };
}`

// scriptCenterGroup scrolls so the bounding box of all marked elements is
// centered in the viewport.
const scriptCenterGroup = `(attr) => {
	const nodes = document.querySelectorAll('[' + attr + ']');
	if (nodes.length === 0) return null;
	let minX = Infinity, minY = Infinity, maxX = -Infinity, maxY = -Infinity;
	for (const el of nodes) {
		const r = el.getBoundingClientRect();
		minX = Math.min(minX, r.x);
		minY = Math.min(minY, r.y);
		maxX = Math.max(maxX, r.x + r.width);
		maxY = Math.max(maxY, r.y + r.height);
	}
	const cx = window.scrollX + (minX + maxX) / 2;
	const cy = window.scrollY + (minY + maxY) / 2;
	window.scrollTo({
		left: cx - window.innerWidth / 2,
		top: cy - window.innerHeight / 2,
		behavior: 'instant'
	});
	return { scrollX: window.scrollX, scrollY: window.scrollY };
}`

// scriptCleanupMarkers strips the marker attribute from every element
// carrying it. Returns the number of elements cleaned.
const scriptCleanupMarkers = `(attr) => {
	const nodes = document.querySelectorAll('[' + attr + ']');
	for (const el of nodes) el.removeAttribute(attr);
	return nodes.length;
}`

// scriptViewportInfo snapshots the viewport state.
const scriptViewportInfo = `() => ({
	width: window.innerWidth,
	height: window.innerHeight,
	deviceScaleFactor: window.devicePixelRatio,
	mobile: /Mobi|Android/i.test(navigator.userAgent),
	scrollX: window.scrollX,
	scrollY: window.scrollY
})`

// scriptScrollTo restores an absolute scroll position.
const scriptScrollTo = `(x, y) => { window.scrollTo({ left: x, top: y, behavior: 'instant' }); }`
