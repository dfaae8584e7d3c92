package codec

import (
	"bufio"
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func sampleHeader(t *testing.T) *Header {
	t.Helper()
	h := NewHeader(2)
	h.RecordCompression = RecordZstd
	h.SignalCompression = SignalZigzagDelta
	if err := h.SetAttribute("run_id", "run0", 0); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if err := h.SetAttribute("run_id", "run1", 1); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if err := h.SetAttribute("asic_id", "0x1f", 1); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	h.Aux = []AuxSpec{
		{Name: "median_before", Type: AuxType{Kind: AuxDouble}},
		{Name: "channel", Type: AuxType{Kind: AuxString}},
		{Name: "counts", Type: AuxType{Kind: AuxUint32, Array: true}},
		{Name: "end_reason", Type: AuxType{Kind: AuxEnum}, EnumLabels: []string{"unknown", "signal_positive"}},
	}
	return h
}

func TestHeader_TextRoundTrip(t *testing.T) {
	h := sampleHeader(t)
	text, err := h.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	parsed, n, err := ParseText(bufio.NewReader(bytes.NewReader(text)))
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}
	if n != int64(len(text)) {
		t.Errorf("consumed %d bytes, want %d", n, len(text))
	}
	if parsed.NumReadGroups != 2 {
		t.Errorf("NumReadGroups = %d, want 2", parsed.NumReadGroups)
	}
	if !reflect.DeepEqual(parsed.AttributeKeys(), []string{"run_id", "asic_id"}) {
		t.Errorf("AttributeKeys = %v", parsed.AttributeKeys())
	}
	if v, ok := parsed.Attribute("run_id", 1); !ok || v != "run1" {
		t.Errorf("run_id[1] = %q, %v", v, ok)
	}
	if _, ok := parsed.Attribute("asic_id", 0); ok {
		t.Error("asic_id[0] should be unset")
	}
	if !reflect.DeepEqual(parsed.Aux, h.Aux) {
		t.Errorf("Aux = %+v, want %+v", parsed.Aux, h.Aux)
	}
}

func TestHeader_BinaryRoundTrip(t *testing.T) {
	h := sampleHeader(t)
	data, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if !bytes.HasPrefix(data, BinaryMagic) {
		t.Fatal("missing magic")
	}

	parsed, n, err := ParseBinary(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseBinary failed: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
	if parsed.RecordCompression != RecordZstd || parsed.SignalCompression != SignalZigzagDelta {
		t.Errorf("compressions = %s/%s", parsed.RecordCompression, parsed.SignalCompression)
	}
	if !reflect.DeepEqual(parsed.Aux, h.Aux) {
		t.Errorf("Aux = %+v, want %+v", parsed.Aux, h.Aux)
	}
}

func TestHeader_ParseBinaryRejectsCorruption(t *testing.T) {
	h := sampleHeader(t)
	good, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"unknown record compression", func(b []byte) []byte { b[9] = 99; return b }},
		{"unknown signal compression", func(b []byte) []byte { b[14] = 99; return b }},
		{"dirty padding", func(b []byte) []byte { b[40] = 1; return b }},
		{"read group disagreement", func(b []byte) []byte { b[10] = 7; return b }},
		{"truncated", func(b []byte) []byte { return b[:PreambleSize+10] }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), good...))
			if _, _, err := ParseBinary(bytes.NewReader(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHeader_ParseTextErrors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"missing version", "#num_read_groups\t1\n"},
		{"zero read groups", "#slow5_version\t0.2.0\n#num_read_groups\t0\n"},
		{"attribute arity", "#slow5_version\t0.2.0\n#num_read_groups\t2\n@run_id\tonly\n"},
		{"truncated", "#slow5_version\t0.2.0\n#num_read_groups\t1\n"},
		{
			"unknown aux type",
			"#slow5_version\t0.2.0\n#num_read_groups\t1\n" +
				"#char*\tuint32_t\tdouble\tdouble\tdouble\tdouble\tuint64_t\tint16_t*\tbogus\n" +
				"#read_id\tread_group\tdigitisation\toffset\trange\tsampling_rate\tlen_raw_signal\traw_signal\tx\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseText(bufio.NewReader(strings.NewReader(tc.text)))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHeader_SetAttributeValidation(t *testing.T) {
	h := NewHeader(1)
	if err := h.SetAttribute("bad key", "v", 0); err == nil {
		t.Error("expected error for key with space")
	}
	if err := h.SetAttribute("k", "a\tb", 0); err == nil {
		t.Error("expected error for value with tab")
	}
	if err := h.SetAttribute("k", "v", 1); err == nil {
		t.Error("expected error for out of range group")
	}
}

func TestParseTypeName(t *testing.T) {
	testCases := []struct {
		token  string
		want   AuxType
		labels []string
	}{
		{"int8_t", AuxType{Kind: AuxInt8}, nil},
		{"uint64_t*", AuxType{Kind: AuxUint64, Array: true}, nil},
		{"float", AuxType{Kind: AuxFloat}, nil},
		{"char", AuxType{Kind: AuxChar}, nil},
		{"char*", AuxType{Kind: AuxString}, nil},
		{"enum{A,B}", AuxType{Kind: AuxEnum}, []string{"A", "B"}},
		{"enum*{x}", AuxType{Kind: AuxEnum, Array: true}, []string{"x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			got, labels, err := ParseTypeName(tc.token)
			if err != nil {
				t.Fatalf("ParseTypeName failed: %v", err)
			}
			if got != tc.want || !reflect.DeepEqual(labels, tc.labels) {
				t.Errorf("got %+v %v, want %+v %v", got, labels, tc.want, tc.labels)
			}
			spec := AuxSpec{Type: got, EnumLabels: labels}
			if spec.TypeName() != tc.token {
				t.Errorf("TypeName = %q, want %q", spec.TypeName(), tc.token)
			}
		})
	}

	if _, _, err := ParseTypeName("enum{A"); err == nil {
		t.Error("expected error for unterminated enum")
	}
}

func TestFormatFromPath(t *testing.T) {
	testCases := []struct {
		path string
		want Format
		ok   bool
	}{
		{"reads.slow5", FormatASCII, true},
		{"/data/reads.BLOW5", FormatBinary, true},
		{"reads.fast5", FormatUnknown, false},
		{"reads", FormatUnknown, false},
	}
	for _, tc := range testCases {
		got, ok := FormatFromPath(tc.path)
		if got != tc.want || ok != tc.ok {
			t.Errorf("FormatFromPath(%q) = %v, %v", tc.path, got, ok)
		}
	}
}
