package ui_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/hivoyage/internal/config"
)

var translationKeys = []string{
	config.TKeyWinTitle,
	config.TKeyWinSettings,
	config.TKeyTabItin,
	config.TKeyTabPacking,
	config.TKeyTabCalendar,
	config.TKeyTabMap,
	config.TKeyItinProgress,
	config.TKeyBtnAddDay,
	config.TKeyBtnAddStop,
	config.TKeyBtnImport,
	config.TKeyBtnExport,
	config.TKeyLblDay,
	config.TKeyPhStopName,
	config.TKeyPhStopAddress,
	config.TKeyPhStopTime,
	config.TKeyConfirmDay,
	config.TKeyConfirmStop,
	config.TKeyConfirmTrip,
	config.TKeyConfirmItem,
	config.TKeyConfirmTitle,
	config.TKeyErrFields,
	config.TKeyBtnDeleteTrip,
	config.TKeyPackProgress,
	config.TKeyBtnAddItem,
	config.TKeyPhItemName,
	config.TKeyErrItemEmpty,
	config.TKeyBtnPrevMonth,
	config.TKeyBtnNextMonth,
	config.TKeyCalNoEvents,
	config.TKeyMapDest,
	config.TKeyMapNoRoute,
	config.TKeyMapBest,
	config.TKeyBtnOpenMap,
	config.TKeyBtnOverview,
	config.TKeyMapNoTrips,
	config.TKeyModeDrive,
	config.TKeyModeWalk,
	config.TKeyModeBike,
	config.TKeyModeTransit,
	config.TKeyMapMarkers,
	config.TKeyMapRoutes,
	config.TKeyMapRoute,
	config.TKeyMapCluster,
	config.TKeyLblServer,
	config.TKeyHelpServer,
	config.TKeyLblTrip,
	config.TKeyHelpTrip,
	config.TKeyLblUser,
	config.TKeyLblPass,
	config.TKeyLblLanguage,
	config.TKeyLblPort,
	config.TKeyHelpPort,
	config.TKeyLblGeocoder,
	config.TKeyLblRouter,
	config.TKeyLblAccount,
	config.TKeyLblGeneral,
	config.TKeyLblMaps,
	config.TKeyBtnSave,
	config.TKeyBtnCancel,
	config.TKeyBtnSettings,
	config.TKeyBtnReload,
	config.TKeyLblFooter,
	config.TKeyStatusLoading,
	config.TKeyStatusReady,
	config.TKeyStatusNoTrip,
	config.TKeyNotifLoadErr,
	config.TKeyErrPortReq,
	config.TKeyErrPortNum,
	config.TKeyErrPortRange,
	config.TKeyErrTimeFmt,
	config.TKeyErrDuplicate,
	config.TKeyErrBusy,
	config.TKeyLblFeed,
}

func loadLocale(t *testing.T, name string) map[string]string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("locales", name))
	require.NoError(t, err, "Must load %s", name)

	var messages map[string]string
	require.NoError(t, json.Unmarshal(content, &messages), "%s must be valid JSON", name)
	return messages
}

// TestI18nIntegrity ensures that every translation key defined in config.go
// exists in each locale file, and that no locale carries unknown keys.
func TestI18nIntegrity(t *testing.T) {
	defined := make(map[string]bool, len(translationKeys))
	for _, k := range translationKeys {
		defined[k] = true
	}

	for _, name := range []string{"active.en.json", "active.fr.json"} {
		t.Run(name, func(t *testing.T) {
			messages := loadLocale(t, name)
			for _, key := range translationKeys {
				msg, ok := messages[key]
				assert.Truef(t, ok, "Key '%s' is missing in %s", key, name)
				assert.NotEmptyf(t, strings.TrimSpace(msg), "Key '%s' is empty in %s", key, name)
			}
			for key := range messages {
				assert.Truef(t, defined[key], "Key '%s' in %s is not defined in config.go", key, name)
			}
		})
	}
}

// TestI18nPlaceholders checks that translations keep the template fields of the English text.
func TestI18nPlaceholders(t *testing.T) {
	en := loadLocale(t, "active.en.json")
	fr := loadLocale(t, "active.fr.json")

	for key, msg := range en {
		for _, field := range []string{"{{.Days}}", "{{.Stops}}", "{{.Checked}}", "{{.Total}}", "{{.Number}}", "{{.Name}}", "{{.Destination}}", "{{.Mode}}", "{{.URL}}", "%s"} {
			if strings.Contains(msg, field) {
				assert.Containsf(t, fr[key], field, "Key '%s' lost %s in French", key, field)
			}
		}
	}
}
