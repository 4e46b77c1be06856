package ui

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/hivoyage/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// localeGlob matches "locales/active.<tag>.json".
const localeGlob = "locales/active.*.json"

// SetupI18n registers every embedded locale whose file name carries a valid
// BCP 47 tag, then selects the preferred language.
func (app *TripApp) SetupI18n() {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	log := slog.With(slog.String(config.LogKeyComponent, config.CompI18n))

	files, err := fs.Glob(localeFS, localeGlob)
	if err != nil || len(files) == 0 {
		log.Error(config.ErrLocalesAccess, slog.Any(config.LogKeyError, err))
		return
	}

	langs := make([]string, 0, len(files))
	for _, file := range files {
		code := localeTag(file)
		if _, err := language.Parse(code); err != nil {
			log.Warn(config.MsgLocaleBadName,
				slog.String(config.LogKeyFile, file),
				slog.Any(config.LogKeyError, err))
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error(config.ErrLocaleLoad,
				slog.String(config.LogKeyFile, file),
				slog.Any(config.LogKeyError, err))
			continue
		}
		langs = append(langs, code)
		log.Debug(config.MsgLocaleLoaded, slog.String(config.LogKeyLang, code))
	}

	app.SupportedLanguages = langs
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// localeTag extracts "fr" from "locales/active.fr.json".
func localeTag(file string) string {
	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	return strings.TrimPrefix(name, "active.")
}

// UpdateLocalizer follows the language preference.
func (app *TripApp) UpdateLocalizer() {
	if app.I18nBundle == nil {
		return
	}
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.Localizer = i18n.NewLocalizer(app.I18nBundle, lang)
}

// GetMsg translates a key, or returns the key itself when it is unknown.
func (app *TripApp) GetMsg(key string) string {
	return app.GetMsgData(key, nil)
}

// GetMsgData translates a templated message.
func (app *TripApp) GetMsgData(key string, data map[string]any) string {
	if app.Localizer == nil {
		return key
	}
	msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}
