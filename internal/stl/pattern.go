package stl

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// patternCacheSize bounds the compiled patterns kept between calls.
const patternCacheSize = 256

// Scripts tend to evaluate the same pattern in a loop. The patterns come
// from script input, so the cache evicts the least recently used ones.
var patternCache = mustLRU(patternCacheSize)

func mustLRU(size int) *lru.Cache[string, *regexp.Regexp] {
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		panic(err)
	}
	return c
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Get(expr); ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regular expression %q", expr)
	}
	patternCache.Add(expr, re)
	return re, nil
}

// likeToRegexp translates a SQL LIKE pattern: % matches any run of
// characters, _ matches exactly one, and the match is anchored.
func likeToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}

// Like reports whether s matches the LIKE pattern.
func Like(s, pattern string, caseInsensitive bool) (bool, error) {
	expr := "(?s)" + likeToRegexp(pattern)
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := compilePattern(expr)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// Match reports whether the regular expression matches anywhere in s.
func Match(s, pattern string, caseInsensitive bool) (bool, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}
