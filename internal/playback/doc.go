// SPDX-License-Identifier: EPL-2.0

// Package playback sends mixer periods to the default audio device.
//
// Output goes through github.com/ebitengine/oto/v3. Builds with the
// headless tag have no audio device; New then fails with ErrUnavailable.
package playback

import "errors"

// ErrUnavailable is returned by New when the build has no audio output.
var ErrUnavailable = errors.New("audio playback not available in this build")
