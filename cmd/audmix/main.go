// SPDX-License-Identifier: EPL-2.0

// Command audmix mixes audio files into a 16-bit stereo WAV file, plays the
// mix, or both.
//
// Usage:
//
//	audmix [flags] [input ...]
//
// Inputs given on the command line are added to the tracks of the config
// file at unity gain. Supported inputs are WAV, AIFF, MP3 and Ogg Vorbis.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
