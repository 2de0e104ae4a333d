package config

import (
	"io"
	"testing"

	"relcore/pkg/execution/setops"
	"relcore/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load(nil, io.Discard)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.LogLevel != logging.LevelInfo || config.LogFormat != "text" {
		t.Errorf("unexpected logging defaults: %+v", config)
	}
	if config.Seed != 1 || !config.Elaboration || config.Difference != setops.Auto || config.Browse {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if !config.Request().ElaborationEnabled {
		t.Error("request should carry the elaboration switch")
	}
}

func TestLoad_Flags(t *testing.T) {
	config, err := Load([]string{
		"-log-level", "debug",
		"-log-format", "json",
		"-seq", "http://localhost:5341",
		"-seed", "42",
		"-elaborate=false",
		"-difference", "Hashed",
		"-browse",
	}, io.Discard)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.LogLevel != logging.LevelDebug || config.Seed != 42 || config.Difference != setops.Hashed || !config.Browse {
		t.Errorf("flags not applied: %+v", config)
	}
	if config.Request().ElaborationEnabled {
		t.Error("elaboration should be off")
	}
	if lc := config.Logging(); lc.SeqURL != "http://localhost:5341" || lc.Format != "json" {
		t.Errorf("unexpected logging config %+v", lc)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"bad level", []string{"-log-level", "loud"}},
		{"bad format", []string{"-log-format", "xml"}},
		{"bad algorithm", []string{"-difference", "magic"}},
		{"stray argument", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args, io.Discard); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
