// internal/browser/js_test.go
package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

func TestJSTagFirstMatch(t *testing.T) {
	js := jsTagFirstMatch([]string{`input[name="q"]`, "input[type=search]"}, inputTagAttr)

	assert.Contains(t, js, `input[name=\"q\"]`, "selectors must be JSON-escaped")
	assert.Contains(t, js, "input[type=search]")
	assert.Contains(t, js, inputTagAttr)
	// Stale tags from a previous scan must be cleared first.
	assert.Contains(t, js, "removeAttribute")
}

func TestJSMarkServerChoice(t *testing.T) {
	t.Run("literal identifier", func(t *testing.T) {
		js := jsMarkServerChoice(schemas.Identifier{Text: "Server One"})
		assert.Contains(t, js, `"Server One"`)
		assert.Contains(t, js, choiceTagAttr)
	})

	t.Run("pattern identifier", func(t *testing.T) {
		js := jsMarkServerChoice(schemas.Identifier{Pattern: `server\s*1`})
		// The backslash must survive into the JS regex literal.
		assert.Contains(t, js, `server\\s*1`)
		assert.Contains(t, js, "new RegExp(pattern, 'i')")
	})

	t.Run("quotes in identifier cannot break out of the string", func(t *testing.T) {
		js := jsMarkServerChoice(schemas.Identifier{Text: `"); alert(1); ("`})
		assert.NotContains(t, js, `"); alert(1); ("`)
		assert.Contains(t, js, `\"`)
	})
}

func TestJSVideoSourceSkipsHiddenPlayers(t *testing.T) {
	// A display:none preroll player must not win over the real content, so
	// the scan has to apply the shared visibility guard before reading src.
	assert.Contains(t, jsVideoSource, "const visible =")
	assert.Contains(t, jsVideoSource, "if (!visible(v)) { continue; }")
	assert.Contains(t, jsVideoSource, "offsetParent")
}

func TestJSSnippetsAreExpressions(t *testing.T) {
	// Each snippet is an IIFE so chromedp.Evaluate gets a single value back.
	for name, js := range map[string]string{
		"video":    jsVideoSource,
		"download": jsDownloadHrefs,
		"tag":      jsTagFirstMatch([]string{"a"}, clickTagAttr),
		"choice":   jsMarkServerChoice(schemas.Identifier{Text: "x"}),
	} {
		assert.True(t, strings.HasPrefix(js, "(() => {"), "snippet %s should be an IIFE", name)
		assert.True(t, strings.HasSuffix(js, ")()"), "snippet %s should be invoked", name)
	}
}
