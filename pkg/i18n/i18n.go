package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init loads the embedded locale files. Safe to call more than once.
func Init() {
	once.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, f := range []string{"locales/active.en.json", "locales/active.id.json"} {
			if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
				panic(err)
			}
		}
	})
}

// Translate renders messageID in the best language for acceptLanguage.
// Unknown IDs are returned verbatim.
func Translate(acceptLanguage, messageID string, data map[string]interface{}) string {
	Init()
	loc := goi18n.NewLocalizer(bundle, acceptLanguage, language.English.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
