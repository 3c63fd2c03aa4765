package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLabelLength is the longest DNS label; tenant slugs double as subdomains.
const MaxLabelLength = 63

type config struct {
	maxLength    int
	suffixLength int
}

type Option func(*config)

// MaxLength caps the slug at n runes. Values outside 1..63 are ignored.
func MaxLength(n int) Option {
	return func(c *config) {
		if n > 0 && n <= MaxLabelLength {
			c.maxLength = n
		}
	}
}

// WithSuffix appends "-" and n random lowercase alphanumerics, trimming the base to fit.
func WithSuffix(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.suffixLength = n
		}
	}
}

// Letters that do not decompose under NFD.
var folds = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o", "ł", "l", "Ł", "l", "đ", "d", "Đ", "d",
	"&", " and ",
)

// Make turns a company name into a DNS-safe label: lowercase ASCII letters, digits and
// single hyphens, never starting or ending with a hyphen.
func Make(s string, opts ...Option) string {
	cfg := &config{maxLength: MaxLabelLength}
	for _, opt := range opts {
		opt(cfg)
	}

	s = fold(folds.Replace(s))

	limit := cfg.maxLength
	if cfg.suffixLength > 0 {
		limit -= cfg.suffixLength + 1
	}

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range strings.ToLower(s) {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			if limit > 0 && b.Len()+2 > limit {
				break
			}
			b.WriteByte('-')
		}
		if limit > 0 && b.Len()+1 > limit {
			break
		}
		b.WriteRune(r)
		sep = false
	}
	out := strings.Trim(b.String(), "-")

	if cfg.suffixLength > 0 {
		n := min(cfg.suffixLength, cfg.maxLength)
		if out == "" || len(out)+1+n > cfg.maxLength {
			return suffix(n)
		}
		return out + "-" + suffix(n)
	}
	return out
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func suffix(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
