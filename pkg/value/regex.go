package value

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/kristofer/hybris/pkg/herror"
)

// patternCache memoizes compiled regexp2 patterns keyed by their full
// source text (pattern plus trailing /flags), guarded by its own mutex —
// the PCRE-cache lock named among the five acquisition-ordered mutexes.
type patternCache struct {
	mu    sync.Mutex
	cache map[string]*regexp2.Regexp
}

var globalPatternCache = &patternCache{cache: make(map[string]*regexp2.Regexp)}

func (c *patternCache) compile(source string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.cache[source]; ok {
		return re, nil
	}
	pattern, opts := splitPatternFlags(source)
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, herror.New(herror.RuntimeError, "invalid regular expression %q: %v", source, err)
	}
	c.cache[source] = re
	return re, nil
}

// splitPatternFlags separates a Perl-style "/pattern/flags" or bare
// "pattern" literal into its body and regexp2.RegexOptions, supporting the
// i (case-insensitive), m (multiline), and s (dotall/singleline) flags.
func splitPatternFlags(source string) (string, regexp2.RegexOptions) {
	opts := regexp2.None
	if len(source) >= 2 && source[0] == '/' {
		if idx := strings.LastIndexByte(source, '/'); idx > 0 {
			flags := source[idx+1:]
			body := source[1:idx]
			for _, f := range flags {
				switch f {
				case 'i':
					opts |= regexp2.IgnoreCase
				case 'm':
					opts |= regexp2.Multiline
				case 's':
					opts |= regexp2.Singleline
				}
			}
			return body, opts
		}
	}
	return source, opts
}

// RegexApply implements the regex_apply contract: match pattern against
// subject, returning a Vector of captured groups (the whole match at index
// 0) when it matches, or a null Reference when it does not.
func RegexApply(pattern, subject string) (Value, error) {
	re, err := globalPatternCache.compile(pattern)
	if err != nil {
		return nil, err
	}
	m, err := re.FindStringMatch(subject)
	if err != nil {
		return nil, herror.New(herror.RuntimeError, "regex match failed: %v", err)
	}
	if m == nil {
		return NewReference(nil), nil
	}
	groups := m.Groups()
	items := make([]Value, len(groups))
	for i, g := range groups {
		items[i] = NewString(g.String())
	}
	return NewVector(items...), nil
}

// RegexMatches reports only whether pattern matches subject, without
// allocating the capture vector, as the string module's `matches` uses it.
func RegexMatches(pattern, subject string) (bool, error) {
	re, err := globalPatternCache.compile(pattern)
	if err != nil {
		return false, err
	}
	m, err := re.FindStringMatch(subject)
	if err != nil {
		return false, herror.New(herror.RuntimeError, "regex match failed: %v", err)
	}
	return m != nil, nil
}
