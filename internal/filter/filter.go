package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// Predicate reports whether a string is accepted.
type Predicate func(string) bool

// All accepts everything.
func All(string) bool { return true }

// And accepts when every predicate accepts. An empty And accepts everything.
func And(ps ...Predicate) Predicate {
	return func(s string) bool {
		for _, p := range ps {
			if p != nil && !p(s) {
				return false
			}
		}
		return true
	}
}

// Or accepts when any predicate accepts. An empty Or rejects everything.
func Or(ps ...Predicate) Predicate {
	return func(s string) bool {
		for _, p := range ps {
			if p != nil && p(s) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(s string) bool { return !p(s) }
}

// Rule is one link of a Builder chain.
type Rule struct {
	Exclude bool
	Pattern *regexp.Regexp
}

// Test applies the rule on its own: an include accepts matches, an exclude
// accepts non-matches.
func (r Rule) Test(s string) bool {
	return r.Pattern.MatchString(s) != r.Exclude
}

// String renders the rule in Parse syntax.
func (r Rule) String() string {
	if r.Exclude {
		return "-" + r.src()
	}
	return "+" + r.src()
}

func (r Rule) src() string {
	// Strip the anchoring added by compile.
	s := r.Pattern.String()
	return strings.TrimSuffix(strings.TrimPrefix(s, "^(?:"), ")$")
}

// Builder is an ordered include/exclude chain. The zero value accepts
// everything. Builder methods record the first invalid pattern; check Err
// before use.
type Builder struct {
	chain []Rule
	err   error
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Include appends an include rule for regex.
func (b *Builder) Include(regex string) *Builder {
	return b.add(false, regex)
}

// Exclude appends an exclude rule for regex.
func (b *Builder) Exclude(regex string) *Builder {
	return b.add(true, regex)
}

// IncludePackage appends include rules for each package prefix.
func (b *Builder) IncludePackage(prefixes ...string) *Builder {
	for _, p := range prefixes {
		b.add(false, PackagePrefix(p))
	}
	return b
}

// ExcludePackage appends exclude rules for each package prefix.
func (b *Builder) ExcludePackage(prefixes ...string) *Builder {
	for _, p := range prefixes {
		b.add(true, PackagePrefix(p))
	}
	return b
}

// Add appends a prebuilt rule.
func (b *Builder) Add(r Rule) *Builder {
	b.chain = append(b.chain, r)
	return b
}

func (b *Builder) add(exclude bool, regex string) *Builder {
	re, err := compile(regex)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.chain = append(b.chain, Rule{Exclude: exclude, Pattern: re})
	return b
}

// Err returns the first pattern compilation error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Rules returns a copy of the chain.
func (b *Builder) Rules() []Rule {
	return append([]Rule(nil), b.chain...)
}

// Test evaluates the chain against s.
func (b *Builder) Test(s string) bool {
	accept := len(b.chain) == 0 || b.chain[0].Exclude
	for _, r := range b.chain {
		if accept && !r.Exclude {
			continue
		}
		if !accept && r.Exclude {
			continue
		}
		accept = r.Test(s)
		if !accept && r.Exclude {
			break
		}
	}
	return accept
}

// Predicate returns b.Test as a Predicate.
func (b *Builder) Predicate() Predicate {
	return b.Test
}

// String renders the chain in Parse syntax.
func (b *Builder) String() string {
	parts := make([]string, len(b.chain))
	for i, r := range b.chain {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// PackagePrefix converts a dotted name into a regex matching it as a prefix.
func PackagePrefix(name string) string {
	return strings.ReplaceAll(name, ".", `\.`) + ".*"
}

// Parse builds a chain from a comma separated list of "+regex" and "-regex".
func Parse(spec string) (*Builder, error) {
	return parse(spec, func(p string) string { return p })
}

// ParsePackages builds a chain from a comma separated list of "+pkg" and
// "-pkg" package prefixes.
func ParsePackages(spec string) (*Builder, error) {
	return parse(spec, func(p string) string {
		if !strings.HasSuffix(p, ".") {
			p += "."
		}
		return PackagePrefix(p)
	})
}

func parse(spec string, toRegex func(string) string) (*Builder, error) {
	b := New()
	if strings.TrimSpace(spec) == "" {
		return b, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.New(errors.ErrCodeInvalidFilter, fmt.Sprintf("empty filter in %q", spec), nil)
		}

		pattern := toRegex(part[1:])
		switch part[0] {
		case '+':
			b.Include(pattern)
		case '-':
			b.Exclude(pattern)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFilter,
				fmt.Sprintf("filter %q should start with either + or -", part), nil)
		}
	}

	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

func compile(regex string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + regex + ")$")
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidFilter, fmt.Sprintf("invalid filter pattern %q", regex), err)
	}
	return re, nil
}
