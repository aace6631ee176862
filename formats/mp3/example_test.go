// SPDX-License-Identifier: EPL-2.0

package mp3_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ik5/audmix/formats/mp3"
)

// ExampleDecoder_Decode shows how to decode an MP3 file.
func ExampleDecoder_Decode() {
	f, err := os.Open("input.mp3")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := mp3.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	buf := make([]int16, 4096)
	var frames int
	for {
		n, err := src.ReadSamples(buf)
		frames += n / src.Channels()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("%d frames at %d Hz\n", frames, src.SampleRate())
}

// ExampleDecoder_Decode_errorHandling shows error handling for invalid MP3 data.
func ExampleDecoder_Decode_errorHandling() {
	_, err := mp3.Decoder{}.Decode(bytes.NewReader([]byte("not an mp3 file")))
	fmt.Println(errors.Is(err, mp3.ErrNotMP3File))

	// Output: true
}
