// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ik5/audmix/formats/wav"
)

func Example_roundTrip() {
	original := []int16{-1000, 1000, -500, 500, 0, 0}

	data := new(bytes.Buffer)
	if err := wav.WriteWAV16(data, 8000, 2, original); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Wrote %d bytes\n", data.Len())

	src, err := wav.Decoder{}.Decode(bytes.NewReader(data.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := make([]int16, 16)
	n, _ := src.ReadSamples(buf)
	fmt.Printf("%d Hz, %d channels: %v\n", src.SampleRate(), src.Channels(), buf[:n])
	// Output:
	// Wrote 56 bytes
	// 8000 Hz, 2 channels: [-1000 1000 -500 500 0 0]
}

func Example_errorNotWAV() {
	_, err := wav.Decoder{}.Decode(bytes.NewReader([]byte("This is not a WAV file")))
	if errors.Is(err, wav.ErrNotWavFile) {
		fmt.Println("not a WAV file")
	}
	// Output: not a WAV file
}
