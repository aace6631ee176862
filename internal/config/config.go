// SPDX-License-Identifier: EPL-2.0

// Package config loads the settings of the audmix command from JSON.
//
// Every option is optional in the file. Load fills in defaults; Validate
// must be called once command line overrides have been applied.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ik5/audmix/audio"
)

// EnvConfigPath names the environment variable holding the default config
// file path.
const EnvConfigPath = "AUDMIX_CONFIG"

// MaxGain is the largest linear gain a track accepts, just under 8.
const MaxGain = float64(0x7FFF) / 0x1000

type OptionError struct {
	Option  string
	Message string
}

func NewOptionError(option string, message string) OptionError {
	return OptionError{Option: option, Message: message}
}

func (e OptionError) Error() string {
	return "error while configuring option " + e.Option + ": " + e.Message
}

type LoggingHandlerType string

const (
	LoggingHandlerTypeText LoggingHandlerType = "text"
	LoggingHandlerTypeJSON LoggingHandlerType = "json"
)

type MixerSettings struct {
	SampleRateHz     *int    `json:"sampleRateHz"`
	FrameCount       *int    `json:"frameCount"`
	ResamplerQuality *string `json:"resamplerQuality"`
}

func (s *MixerSettings) init() {
	if s.SampleRateHz == nil {
		v := 48000
		s.SampleRateHz = &v
	}

	if s.FrameCount == nil {
		v := 1024
		s.FrameCount = &v
	}

	if s.ResamplerQuality == nil {
		v := "default"
		s.ResamplerQuality = &v
	}
}

func (s *MixerSettings) validate() []error {
	var errs []error

	if *s.SampleRateHz < 1 {
		errs = append(errs, NewOptionError("mixer.sampleRateHz", "invalid value. minimum of 1"))
	}

	if *s.FrameCount < 1 {
		errs = append(errs, NewOptionError("mixer.frameCount", "invalid value. minimum of 1"))
	}

	if _, ok := qualities[*s.ResamplerQuality]; !ok {
		errs = append(errs, NewOptionError("mixer.resamplerQuality", fmt.Sprintf("invalid quality \"%s\"", *s.ResamplerQuality)))
	}

	return errs
}

var qualities = map[string]audio.Quality{
	"default": audio.QualityDefault,
	"low":     audio.QualityLow,
	"medium":  audio.QualityMedium,
}

// Quality returns the resampler quality to configure the mixer with.
func (s *MixerSettings) Quality() audio.Quality {
	return qualities[*s.ResamplerQuality]
}

type LoggingSettings struct {
	Type  *LoggingHandlerType `json:"type"`
	Level *string             `json:"level"`
}

func (s *LoggingSettings) init() {
	if s.Type == nil {
		v := LoggingHandlerTypeText
		s.Type = &v
	}

	if s.Level == nil {
		v := "info"
		s.Level = &v
	}
}

func (s *LoggingSettings) validate() []error {
	var errs []error

	switch *s.Type {
	case LoggingHandlerTypeText, LoggingHandlerTypeJSON:
	default:
		errs = append(errs, NewOptionError("logging.type", fmt.Sprintf("invalid handler type \"%s\"", string(*s.Type))))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*s.Level)); err != nil {
		errs = append(errs, NewOptionError("logging.level", fmt.Sprintf("invalid level \"%s\"", *s.Level)))
	}

	return errs
}

// SlogLevel returns the configured level. It is only meaningful after a
// successful Validate.
func (s *LoggingSettings) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(*s.Level))
	return level
}

// TrackSettings describes one input of the mixdown. Volume scales both
// channels; Left and Right replace it for one channel.
type TrackSettings struct {
	Path     *string  `json:"path"`
	Volume   *float64 `json:"volume"`
	Left     *float64 `json:"left"`
	Right    *float64 `json:"right"`
	AuxLevel *float64 `json:"auxLevel"`
	FadeIn   *bool    `json:"fadeIn"`
}

func (s *TrackSettings) init() {
	if s.Volume == nil {
		v := 1.0
		s.Volume = &v
	}

	if s.Left == nil {
		v := *s.Volume
		s.Left = &v
	}

	if s.Right == nil {
		v := *s.Volume
		s.Right = &v
	}

	if s.AuxLevel == nil {
		v := 0.0
		s.AuxLevel = &v
	}

	if s.FadeIn == nil {
		v := false
		s.FadeIn = &v
	}
}

func (s *TrackSettings) validate(i int) []error {
	var errs []error
	option := func(name string) string { return fmt.Sprintf("tracks.[%d].%s", i, name) }

	if s.Path == nil || *s.Path == "" {
		errs = append(errs, NewOptionError(option("path"), "required option is not set"))
	}

	gains := []struct {
		name  string
		value float64
	}{
		{"volume", *s.Volume},
		{"left", *s.Left},
		{"right", *s.Right},
		{"auxLevel", *s.AuxLevel},
	}
	for _, g := range gains {
		if !(g.value >= 0 && g.value <= MaxGain) {
			errs = append(errs, NewOptionError(option(g.name), fmt.Sprintf("invalid value %g. must be between 0 and %.4f", g.value, MaxGain)))
		}
	}

	return errs
}

// NewTrack returns the settings of a track read from path at unity gain.
func NewTrack(path string) *TrackSettings {
	t := &TrackSettings{Path: &path}
	t.init()
	return t
}

type Settings struct {
	Mixer   *MixerSettings   `json:"mixer"`
	Logging *LoggingSettings `json:"logging"`
	Tracks  []*TrackSettings `json:"tracks"`
	// Output is the WAV file receiving the main mix, "-" for stdout.
	Output *string `json:"output"`
	// AuxOutput is the WAV file receiving the aux bus.
	AuxOutput *string `json:"auxOutput"`
	Play      *bool   `json:"play"`
}

func (s *Settings) init() {
	if s.Mixer == nil {
		s.Mixer = &MixerSettings{}
	}
	s.Mixer.init()

	if s.Logging == nil {
		s.Logging = &LoggingSettings{}
	}
	s.Logging.init()

	for _, t := range s.Tracks {
		if t != nil {
			t.init()
		}
	}

	if s.Output == nil {
		v := ""
		s.Output = &v
	}

	if s.AuxOutput == nil {
		v := ""
		s.AuxOutput = &v
	}

	if s.Play == nil {
		v := false
		s.Play = &v
	}
}

func (s *Settings) validate() []error {
	var errs []error

	errs = append(errs, s.Mixer.validate()...)
	errs = append(errs, s.Logging.validate()...)

	if len(s.Tracks) == 0 {
		errs = append(errs, NewOptionError("tracks", "no input tracks"))
	}
	for i, t := range s.Tracks {
		if t == nil {
			errs = append(errs, NewOptionError(fmt.Sprintf("tracks.[%d]", i), "contains a null"))
			continue
		}
		errs = append(errs, t.validate(i)...)
	}

	if *s.Output == "" && *s.AuxOutput == "" && !*s.Play {
		errs = append(errs, NewOptionError("output", "nothing to do. set output, auxOutput or play"))
	}
	if *s.Output == "-" && *s.AuxOutput == "-" {
		errs = append(errs, NewOptionError("auxOutput", "output and auxOutput cannot both be stdout"))
	}

	return errs
}

// Validate reports every invalid option at once, joined into one error of
// OptionError values.
func (s *Settings) Validate() error {
	return errors.Join(s.validate()...)
}

// Default returns the settings of an empty config file.
func Default() *Settings {
	s := &Settings{}
	s.init()
	return s
}

// Load parses a JSON config and fills in defaults. Unknown options are
// rejected.
func Load(r io.Reader) (*Settings, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	s := &Settings{}
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	s.init()
	return s, nil
}

// LoadFile reads the config file at path.
func LoadFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("config file at %s: %w", path, err)
	}
	return s, nil
}
