package compliance

import (
	"content_compliance/internal/domain"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var (
	// Pattern rules look at these fields, in this order.
	patternFields = []string{domain.FieldTitle, domain.FieldScript, domain.FieldCaption}
	// Keyword rules additionally see hashtags.
	keywordFields = []string{domain.FieldTitle, domain.FieldScript, domain.FieldCaption, domain.FieldHashtags}
)

// scanFields runs find against each field in order and returns the location of
// the first hit.
func scanFields(content domain.Content, fields []string, find func(text string) (string, bool)) *domain.Location {
	for _, field := range fields {
		text := content.Field(field)
		if text == "" {
			continue
		}
		if match, ok := find(text); ok {
			return &domain.Location{Field: field, Match: match}
		}
	}
	return nil
}

// fold is not cached: a cases.Caser must not be shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

type KeywordPredicate struct {
	keywords []string
	folded   []string
}

func Keywords(keywords ...string) *KeywordPredicate {
	p := &KeywordPredicate{}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		p.keywords = append(p.keywords, kw)
		p.folded = append(p.folded, fold(kw))
	}
	return p
}

func (p *KeywordPredicate) Evaluate(content domain.Content) (*domain.Detection, error) {
	folded := domain.Content{
		Title:   fold(content.Title),
		Script:  fold(content.Script),
		Caption: fold(content.Caption),
	}
	for _, tag := range content.Hashtags {
		tag = fold(strings.TrimSpace(tag))
		if tag != "" && !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		folded.Hashtags = append(folded.Hashtags, tag)
	}

	for i, kw := range p.folded {
		loc := scanFields(folded, keywordFields, func(text string) (string, bool) {
			return p.keywords[i], containsTerm(text, kw)
		})
		if loc != nil {
			return &domain.Detection{
				Detail:   fmt.Sprintf("contains restricted term %q", p.keywords[i]),
				Location: loc,
			}, nil
		}
	}
	return nil, nil
}

// containsTerm reports whether text contains kw. A hashtag keyword must match
// the whole tag, so "#ad" does not match "#adventure".
func containsTerm(text, kw string) bool {
	if !strings.HasPrefix(kw, "#") {
		return strings.Contains(text, kw)
	}
	for offset := 0; ; {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return false
		}
		end := offset + i + len(kw)
		next, _ := utf8.DecodeRuneInString(text[end:])
		if end == len(text) || !isTagRune(next) {
			return true
		}
		offset += i + 1
	}
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type PatternPredicate struct {
	pattern *regexp.Regexp
	fields  []string
}

// Pattern compiles expr and panics on an invalid expression; it is meant for
// rule tables built at init.
func Pattern(expr string, fields ...string) *PatternPredicate {
	return &PatternPredicate{pattern: regexp.MustCompile(expr), fields: fields}
}

func CompilePattern(expr string, fields ...string) (*PatternPredicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return &PatternPredicate{pattern: re, fields: fields}, nil
}

func (p *PatternPredicate) Evaluate(content domain.Content) (*domain.Detection, error) {
	fields := patternFields
	if len(p.fields) > 0 {
		fields = p.fields
	}

	loc := scanFields(content, fields, func(text string) (string, bool) {
		match := p.pattern.FindString(text)
		return match, match != ""
	})
	if loc == nil {
		return nil, nil
	}
	return &domain.Detection{
		Detail:   fmt.Sprintf("matched %q in %s", loc.Match, loc.Field),
		Location: loc,
	}, nil
}

type CustomFunc func(content domain.Content) (*domain.Detection, error)

type CustomPredicate struct {
	fn CustomFunc
}

func Custom(fn CustomFunc) *CustomPredicate {
	return &CustomPredicate{fn: fn}
}

func (p *CustomPredicate) Evaluate(content domain.Content) (*domain.Detection, error) {
	if p.fn == nil {
		return nil, fmt.Errorf("custom predicate has no function")
	}
	return p.fn(content)
}

// TermsWithoutDisclaimer fires when any term is present and none of the
// disclaimers is.
func TermsWithoutDisclaimer(terms, disclaimers []string) *CustomPredicate {
	found := Keywords(terms...)
	disclaimed := Keywords(disclaimers...)
	return Custom(func(content domain.Content) (*domain.Detection, error) {
		hit, err := found.Evaluate(content)
		if err != nil || hit == nil {
			return nil, err
		}
		covered, err := disclaimed.Evaluate(content)
		if err != nil || covered != nil {
			return nil, err
		}
		return &domain.Detection{
			Detail:   fmt.Sprintf("mentions %q without a disclaimer", hit.Location.Match),
			Location: hit.Location,
		}, nil
	})
}

func HashtagLimit(limit int) *CustomPredicate {
	return Custom(func(content domain.Content) (*domain.Detection, error) {
		if len(content.Hashtags) <= limit {
			return nil, nil
		}
		return &domain.Detection{
			Detail: fmt.Sprintf("uses %d hashtags, limit is %d", len(content.Hashtags), limit),
			Location: &domain.Location{
				Field: domain.FieldHashtags,
				Match: fmt.Sprintf("%d hashtags", len(content.Hashtags)),
			},
		}, nil
	})
}

// MaxLength fires when field is longer than limit runes.
func MaxLength(field string, limit int) *CustomPredicate {
	return Custom(func(content domain.Content) (*domain.Detection, error) {
		n := len([]rune(content.Field(field)))
		if n <= limit {
			return nil, nil
		}
		return &domain.Detection{
			Detail:   fmt.Sprintf("%s is %d characters, limit is %d", field, n, limit),
			Location: &domain.Location{Field: field},
		}, nil
	})
}

// ExcessiveCaps fires on a title or caption with at least minLetters letters of
// which more than ratio are upper case.
func ExcessiveCaps(minLetters int, ratio float64) *CustomPredicate {
	return Custom(func(content domain.Content) (*domain.Detection, error) {
		loc := scanFields(content, []string{domain.FieldTitle, domain.FieldCaption}, func(text string) (string, bool) {
			var letters, upper int
			for _, r := range text {
				if unicode.IsLetter(r) {
					letters++
					if unicode.IsUpper(r) {
						upper++
					}
				}
			}
			if letters < minLetters {
				return "", false
			}
			return text, float64(upper)/float64(letters) > ratio
		})
		if loc == nil {
			return nil, nil
		}
		return &domain.Detection{
			Detail:   fmt.Sprintf("%s is mostly upper case", loc.Field),
			Location: loc,
		}, nil
	})
}
