// Package codec is the encode/decode engine for SLOW5 and BLOW5 signal files.
//
// It knows the byte layout of both container flavours and nothing about
// typed values: auxiliary columns travel as raw little-endian bytes and the
// typed view lives in package slow5.
//
// # Text Format (.slow5)
//
// A text file starts with a tab separated header:
//
//	#slow5_version	0.2.0
//	#num_read_groups	1
//	@run_id	run0
//	#char*	uint32_t	double	double	double	double	uint64_t	int16_t*	enum{A,B}
//	#read_id	read_group	digitisation	offset	range	sampling_rate	len_raw_signal	raw_signal	label
//
// followed by one record per line. Arrays are comma separated and "." marks
// an absent auxiliary value or an unset attribute.
//
// # Binary Format (.blow5)
//
// A binary file starts with a fixed 64 byte preamble:
//
//	[Magic(6)][Version(3)][RecordCompression(1)][NumReadGroups(4)][SignalCompression(1)][zero padding]
//
// then the text header prefixed by its length (4 bytes), then one block per
// record and finally the EOF marker "5WOLB". Each block is:
//
//	[Size(8)][CRC32(4)][Payload]
//
// The payload is the record body compressed with the record codec:
//
//	[IDLen(2)][ReadID][ReadGroup(4)][Digitisation(8)][Offset(8)][Range(8)][SamplingRate(8)]
//	[LenRawSignal(8)][SignalLen(8)][Signal][AuxBitmap][Aux...]
//
// Bit i of AuxBitmap is set when schema column i carries a value. Present
// values follow in schema order; strings and arrays are prefixed with their
// byte length (8 bytes). All integers are little-endian.
//
// # Compression
//
// Record codecs: none, zlib, zstd, snappy. Signal codecs: none (raw int16)
// and zigzag-delta (zig-zag encoded first differences as uvarints).
//
// # Memory
//
// Decoders reuse their buffers. A RawRecord filled by Decode aliases
// decoder memory and is overwritten by the next Decode call; callers that
// keep a record must copy it first.
//
// # Usage
//
//	h := codec.NewHeader(1)
//	h.RecordCompression = codec.RecordZstd
//	c, err := codec.NewBinaryCodec(h)
//	if err != nil {
//	    return err
//	}
//	payload, err := c.Encode(rec)
//	if err != nil {
//	    return err
//	}
//	block := codec.AppendBlock(nil, payload)
package codec
