package js

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/funvibe/hog/internal/js/jsstl"
)

// helperPrefix is prepended to names that would clash with JavaScript or
// with the bundled helpers.
const helperPrefix = "__x_"

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var jsKeywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "arguments": true, "eval": true,
	"undefined": true, "NaN": true, "Infinity": true,
}

func isIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// sanitize turns a Hog name into a JavaScript identifier. Keywords and
// internal helper names get the prefix; names already carrying the prefix
// get it again so they cannot collide with a prefixed keyword. Names that
// are not identifiers become computed keys.
func sanitize(name string) string {
	if !isIdentifier(name) {
		return "[" + jsString(name) + "]"
	}
	if jsKeywords[name] || strings.HasPrefix(name, helperPrefix) || isInternalHelper(name) {
		return helperPrefix + name
	}
	return name
}

func isInternalHelper(name string) bool {
	return strings.HasPrefix(name, "__") && jsstl.Default().Has(name)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// strings always encode
	_ = enc.Encode(s)
	// encoding/json also escapes U+2028 and U+2029, which JavaScript needs
	return strings.TrimSuffix(buf.String(), "\n")
}

func jsNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
