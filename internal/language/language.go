// Package language implements the translation routing policy. The system
// recognizes exactly two coarse language forms; every code collapses into one
// of them by prefix matching, and the resolved target language is always one
// of the two configured locales.
package language

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/voxrelay/server/internal/config"
)

// Policy resolves coarse language forms and target languages for translation
// routing.
type Policy struct {
	primaryTag      string
	secondaryTag    string
	primaryLocale   string
	secondaryLocale string
	fallbackLocale  string
}

// NewPolicy builds a Policy from the configured language pair.
func NewPolicy(cfg *config.Config) *Policy {
	return &Policy{
		primaryTag:      strings.ToLower(cfg.PrimaryLanguage),
		secondaryTag:    strings.ToLower(cfg.SecondaryLanguage),
		primaryLocale:   cfg.PrimaryLocale,
		secondaryLocale: cfg.SecondaryLocale,
		fallbackLocale:  cfg.FallbackLanguage,
	}
}

// Coarse collapses a language code into one of the two supported coarse tags.
// Codes outside both families collapse to the secondary tag. That loses
// third-language input on purpose; the routing only ever toggles between two
// languages.
func (p *Policy) Coarse(code string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), p.primaryTag) {
		return p.primaryTag
	}
	return p.secondaryTag
}

// IsValid reports whether code is a syntactically well-formed language tag.
func (p *Policy) IsValid(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	_, err := language.Parse(strings.TrimSpace(code))
	return err == nil
}

// supported reports whether code prefix-matches one of the two configured
// families, without the collapse Coarse applies.
func (p *Policy) supported(code string) bool {
	lower := strings.ToLower(strings.TrimSpace(code))
	return strings.HasPrefix(lower, p.primaryTag) || strings.HasPrefix(lower, p.secondaryTag)
}

// ResolveSource returns the source code to use for recognition: the supplied
// code when syntactically valid, the fallback locale otherwise.
func (p *Policy) ResolveSource(code string) string {
	if p.IsValid(code) {
		return strings.TrimSpace(code)
	}
	return p.fallbackLocale
}

// ResolveTarget picks the target language for a request. A syntactically
// valid requested code belonging to one of the two supported families is used
// as-is; anything else auto-selects the locale of the family the source does
// NOT belong to.
func (p *Policy) ResolveTarget(source, requested string) string {
	if p.IsValid(requested) && p.supported(requested) {
		return strings.TrimSpace(requested)
	}
	if p.Coarse(source) == p.primaryTag {
		return p.secondaryLocale
	}
	return p.primaryLocale
}

// NeedsTranslation reports whether source and target land in different coarse
// families.
func (p *Policy) NeedsTranslation(source, target string) bool {
	return p.Coarse(source) != p.Coarse(target)
}
