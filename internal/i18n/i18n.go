package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLang is the only shipped catalog.
const DefaultLang = "de"

//go:embed locales/*.json
var localeFS embed.FS

// Catalog resolves message IDs to localized status text.
type Catalog struct {
	loc *i18n.Localizer
}

// New loads the embedded catalogs and returns a Catalog for lang. Unknown
// languages fall back to German.
func New(lang string) (*Catalog, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.German)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		slog.Debug("loaded locale file", "file", e.Name())
	}

	return &Catalog{loc: i18n.NewLocalizer(bundle, tag.String(), DefaultLang)}, nil
}

// T translates a message by ID.
func (c *Catalog) T(msgID string) string {
	return c.localize(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func (c *Catalog) Td(msgID string, data map[string]any) string {
	return c.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by ID.
func (c *Catalog) Tp(msgID string, count int) string {
	return c.localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (c *Catalog) localize(cfg *i18n.LocalizeConfig) string {
	if c == nil {
		return cfg.MessageID
	}
	s, err := c.loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}
