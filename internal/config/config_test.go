// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ik5/audmix/audio"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader(`{"tracks": [{"path": "a.wav"}], "output": "mix.wav"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if *s.Mixer.SampleRateHz != 48000 {
		t.Errorf("sampleRateHz = %d, want 48000", *s.Mixer.SampleRateHz)
	}
	if *s.Mixer.FrameCount != 1024 {
		t.Errorf("frameCount = %d, want 1024", *s.Mixer.FrameCount)
	}
	if s.Mixer.Quality() != audio.QualityDefault {
		t.Errorf("Quality() = %v, want %v", s.Mixer.Quality(), audio.QualityDefault)
	}
	if *s.Logging.Type != LoggingHandlerTypeText || s.Logging.SlogLevel() != slog.LevelInfo {
		t.Errorf("logging = %s/%v, want text/INFO", *s.Logging.Type, s.Logging.SlogLevel())
	}

	tr := s.Tracks[0]
	if *tr.Left != 1 || *tr.Right != 1 || *tr.AuxLevel != 0 || *tr.FadeIn {
		t.Errorf("track = left %g, right %g, aux %g, fadeIn %v, want 1, 1, 0, false", *tr.Left, *tr.Right, *tr.AuxLevel, *tr.FadeIn)
	}
}

func TestLoad_Values(t *testing.T) {
	t.Parallel()

	const doc = `{
		"mixer": {"sampleRateHz": 44100, "frameCount": 512, "resamplerQuality": "medium"},
		"logging": {"type": "json", "level": "debug"},
		"tracks": [
			{"path": "voice.wav", "volume": 0.5, "right": 2, "auxLevel": 0.25, "fadeIn": true}
		],
		"play": true
	}`

	s, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if s.Mixer.Quality() != audio.QualityMedium {
		t.Errorf("Quality() = %v, want %v", s.Mixer.Quality(), audio.QualityMedium)
	}
	if s.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want %v", s.Logging.SlogLevel(), slog.LevelDebug)
	}

	tr := s.Tracks[0]
	if *tr.Left != 0.5 || *tr.Right != 2 {
		t.Errorf("left, right = %g, %g, want 0.5, 2", *tr.Left, *tr.Right)
	}
	if *tr.AuxLevel != 0.25 || !*tr.FadeIn {
		t.Errorf("auxLevel, fadeIn = %g, %v, want 0.25, true", *tr.AuxLevel, *tr.FadeIn)
	}
}

func TestLoad_Empty(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *s.Mixer.SampleRateHz != *Default().Mixer.SampleRateHz {
		t.Error("empty config does not match the defaults")
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"mixer": `},
		{"unknown option", `{"mixer": {"rate": 1}}`},
		{"wrong type", `{"play": "yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Load(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("Load(%s) error = nil, want error", tt.doc)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		doc         string
		wantOptions []string
	}{
		{"no tracks", `{"output": "a.wav"}`, []string{"tracks"}},
		{"nothing to do", `{"tracks": [{"path": "a.wav"}]}`, []string{"output"}},
		{"both stdout", `{"tracks": [{"path": "a.wav"}], "output": "-", "auxOutput": "-"}`, []string{"auxOutput"}},
		{
			"bad mixer",
			`{"mixer": {"sampleRateHz": 0, "frameCount": -1, "resamplerQuality": "high"}, "tracks": [{"path": "a"}], "play": true}`,
			[]string{"mixer.sampleRateHz", "mixer.frameCount", "mixer.resamplerQuality"},
		},
		{
			"bad logging",
			`{"logging": {"type": "pretty", "level": "loud"}, "tracks": [{"path": "a"}], "play": true}`,
			[]string{"logging.type", "logging.level"},
		},
		{
			"bad tracks",
			`{"tracks": [{"volume": 9}, null, {"path": "b", "auxLevel": -1}], "play": true}`,
			[]string{"tracks.[0].path", "tracks.[0].volume", "tracks.[0].left", "tracks.[0].right", "tracks.[1]", "tracks.[2].auxLevel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Load(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			err = s.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}

			var got []string
			for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
				var oe OptionError
				if !errors.As(e, &oe) {
					t.Fatalf("error %v is not an OptionError", e)
				}
				got = append(got, oe.Option)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantOptions, ",") {
				t.Errorf("options = %v, want %v", got, tt.wantOptions)
			}
		})
	}
}

func TestNewTrack(t *testing.T) {
	t.Parallel()

	s := Default()
	s.Tracks = append(s.Tracks, NewTrack("in.ogg"))
	*s.Play = true

	if err := s.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"mixer": {"frameCount": 256}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *s.Mixer.FrameCount != 256 {
		t.Errorf("frameCount = %d, want 256", *s.Mixer.FrameCount)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want %v", err, os.ErrNotExist)
	}
}
