package codec_test

import (
	"fmt"
	"log"

	"github.com/ssargent/slow5/pkg/codec"
)

// ExampleBinaryCodec shows a record going through the zstd block codec
func ExampleBinaryCodec() {
	h := codec.NewHeader(1)
	h.RecordCompression = codec.RecordZstd
	h.SignalCompression = codec.SignalZigzagDelta

	c, err := codec.NewBinaryCodec(h)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	payload, err := c.Encode(&codec.RawRecord{
		ReadID:       []byte("r1"),
		Digitisation: 4096,
		Offset:       4,
		Range:        12,
		SamplingRate: 4000,
		LenRawSignal: 4,
		RawSignal:    []int16{0, 1, 2, 3},
		Aux:          [][]byte{},
	})
	if err != nil {
		log.Fatal(err)
	}
	block := codec.AppendBlock(nil, payload)

	var rec codec.RawRecord
	if err := c.Decode(block[codec.BlockHeaderSize:], &rec); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s %v\n", rec.ReadID, rec.RawSignal)
	// Output: r1 [0 1 2 3]
}

// ExampleHeader_MarshalText prints the text header of an empty schema
func ExampleHeader_MarshalText() {
	h := codec.NewHeader(1)
	if err := h.SetAttribute("run_id", "run0", 0); err != nil {
		log.Fatal(err)
	}
	text, err := h.MarshalText()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(text))
	// Output:
	// #slow5_version	0.2.0
	// #num_read_groups	1
	// @run_id	run0
	// #char*	uint32_t	double	double	double	double	uint64_t	int16_t*
	// #read_id	read_group	digitisation	offset	range	sampling_rate	len_raw_signal	raw_signal
}
