package object

import (
	"math"
	"strconv"
	"strings"
)

// Print renders o the way print() and toString() show it: strings appear
// raw at the top level, everything else in its literal form.
func Print(o Object) string {
	if o == nil {
		return "null"
	}
	if s, ok := o.(*String); ok {
		return s.Value
	}
	return o.Inspect()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\x00", `\0`,
)

func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

func inspectList(elems []Object) string {
	var sb strings.Builder
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if e == nil {
			sb.WriteString("null")
			continue
		}
		sb.WriteString(e.Inspect())
	}
	return sb.String()
}
