package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/hivoyage/internal/config"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{"Defaults", nil, options{}, false},
		{"Version", []string{"-version"}, options{showVersion: true}, false},
		{"Debug and trip flag", []string{"-debug", "-trip", "https://h.example/user/trip/42"},
			options{debug: true, tripURL: "https://h.example/user/trip/42"}, false},
		{"Positional trip", []string{"https://h.example/user/trip/7"},
			options{tripURL: "https://h.example/user/trip/7"}, false},
		{"Flag and positional", []string{"-trip", "https://h.example/user/trip/1", "extra"}, options{}, true},
		{"Two positionals", []string{"a/user/trip/1", "b"}, options{}, true},
		{"Trip without id", []string{"-trip", "https://h.example/"}, options{}, true},
		{"Unknown flag", []string{"-nope"}, options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var usage bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &usage)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, usage.String(), config.FlagTrip)
}

func TestRunMain_Exits(t *testing.T) {
	assert.Equal(t, config.ExitCodeSuccess, runMain([]string{"-version"}))
	assert.Equal(t, config.ExitCodeUsage, runMain([]string{"-nope"}))
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown", config.LogKeyComponent, config.CompMain)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, config.CompMain, entry[config.LogKeyComponent])
	assert.Contains(t, entry, "source")
}

func TestFeedPort(t *testing.T) {
	assert.Equal(t, "9000", feedPort("9000"))
	assert.Equal(t, config.DefaultPort, feedPort("99999"))
	assert.Equal(t, config.DefaultPort, feedPort("abc"))
}
