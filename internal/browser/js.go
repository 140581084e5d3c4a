// internal/browser/js.go
package browser

import (
	"encoding/json"
	"fmt"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// Element tagging attributes. Heuristic scans run in the page and tag the
// winning element with a data attribute, so subsequent chromedp actions can
// address it with a plain CSS selector.
const (
	inputTagAttr  = "data-rtg-input"
	clickTagAttr  = "data-rtg-click"
	choiceTagAttr = "data-rtg-choice"
)

// tagResult is the JSON shape returned by the tagging snippets.
type tagResult struct {
	Found    bool   `json:"found"`
	Selector string `json:"selector"`
}

// jsVisible is shared by the snippets below: an element counts as interactable
// only when it is rendered and enabled.
const jsVisible = `function(el) {
	if (!el || el.disabled) { return false; }
	if (el.offsetParent === null && window.getComputedStyle(el).position !== 'fixed') { return false; }
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

// jsTagFirstMatch walks the selector list in order and tags the first visible
// match with attr. Earlier selectors win over later ones regardless of DOM
// order.
func jsTagFirstMatch(selectors []string, attr string) string {
	sel, _ := json.Marshal(selectors)
	return fmt.Sprintf(`(() => {
	const visible = %s;
	const selectors = %s;
	document.querySelectorAll('[%s]').forEach(el => el.removeAttribute('%s'));
	for (const selector of selectors) {
		for (const el of document.querySelectorAll(selector)) {
			if (visible(el)) {
				el.setAttribute('%s', '1');
				return {found: true, selector: selector};
			}
		}
	}
	return {found: false, selector: ''};
})()`, jsVisible, sel, attr, attr, attr)
}

// jsMarkServerChoice scans clickable elements for one whose text, class, id
// or value matches the identifier, tags it, and reports its href and any
// nested media source. Literal identifiers match as case-insensitive
// substrings; patterns match the visible text as a regular expression.
func jsMarkServerChoice(ident schemas.Identifier) string {
	literal, _ := json.Marshal(ident.Text)
	pattern, _ := json.Marshal(ident.Pattern)
	return fmt.Sprintf(`(() => {
	const visible = %s;
	const literal = %s.toLowerCase();
	const pattern = %s;
	const re = pattern ? new RegExp(pattern, 'i') : null;
	const attr = '%s';
	document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
	const candidates = document.querySelectorAll(
		'a, button, [role="button"], input[type="submit"], input[type="button"], div[onclick], span[onclick]');
	for (const el of candidates) {
		if (!visible(el)) { continue; }
		const text = (el.innerText || el.value || '').trim();
		const haystack = [text, el.className || '', el.id || ''].join(' ').toLowerCase();
		let hit = false;
		if (re) {
			hit = re.test(text);
		} else if (literal) {
			hit = haystack.includes(literal);
		}
		if (!hit) { continue; }
		el.setAttribute(attr, '1');
		const media = el.querySelector('video[src], source[src]');
		return {
			found: true,
			href: el.href || '',
			src: media ? media.src : '',
			text: text,
		};
	}
	return {found: false, href: '', src: '', text: ''};
})()`, jsVisible, literal, pattern, choiceTagAttr)
}

// jsVideoSource returns the src of the first visible video on the page, or
// an empty string. Hidden players (preroll iframes, ad templates) are
// skipped. Sources nested in <source> children are checked too.
const jsVideoSource = `(() => {
	const visible = ` + jsVisible + `;
	for (const v of document.querySelectorAll('video')) {
		if (!visible(v)) { continue; }
		if (v.src) { return v.src; }
		const s = v.querySelector('source[src]');
		if (s) { return s.src; }
	}
	return '';
})()`

// jsDownloadHrefs collects hrefs from anchors that present themselves as
// download links.
const jsDownloadHrefs = `(() => {
	const out = [];
	for (const a of document.querySelectorAll('a[href]')) {
		const text = (a.innerText || '').toLowerCase();
		const marker = [text, a.className || '', a.id || ''].join(' ').toLowerCase();
		if (a.hasAttribute('download') || marker.includes('download')) {
			out.push(a.href);
		}
	}
	return out;
})()`
