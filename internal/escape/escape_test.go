package escape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_NoEscapes_ReturnsInputUnchanged(t *testing.T) {
	inputs := []string{
		"",
		"alpha",
		"hello world",
		"ünïcödé é世界",
		"already\nhas\tcontrols",
	}
	for _, in := range inputs {
		out, err := Decode(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestDecode_NoEscapes_DoesNotAllocate(t *testing.T) {
	in := strings.Repeat("no escapes here ", 64)
	allocs := testing.AllocsPerRun(100, func() {
		out, err := Decode(in)
		if err != nil || len(out) != len(in) {
			t.Fatal("unexpected decode result")
		}
	})
	assert.Zero(t, allocs, "escape-free input must be returned borrowed")
}

func TestDecode_EscapeTable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`\\`, "\\"},
		{`\"`, "\""},
		{`\a`, "\a"},
		{`\b`, "\b"},
		{`\t`, "\t"},
		{`\n`, "\n"},
		{`\v`, "\v"},
		{`\f`, "\f"},
		{`\r`, "\r"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			out, err := Decode(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestDecode_MixedContent(t *testing.T) {
	out, err := Decode(`before\nmiddle\tafter`)
	require.NoError(t, err)
	assert.Equal(t, "before\nmiddle\tafter", out)
}

func TestDecode_HexEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`\x41\`, "A"},
		{`\x41\BC`, "ABC"},
		{`\x0a\`, "\n"},
		{`\xe9\`, "é"},
		{`\x4E16\`, "世"},
		{`\x10FFFF\`, string(rune(0x10FFFF))},
		{`pre\x21\post`, "pre!post"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			out, err := Decode(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestDecode_HexRoundTrip(t *testing.T) {
	// representative sample across the scalar range, skipping surrogates
	points := []rune{0x20, 0x41, 0x7f, 0x80, 0x7ff, 0x800, 0xd7ff, 0xe000, 0xffff, 0x10000, 0x10FFFF}
	for _, r := range points {
		in := fmt.Sprintf(`\x%x\`, r)
		out, err := Decode(in)
		require.NoError(t, err, "decoding %s", in)
		assert.Equal(t, string(r), out, "decoding %s", in)
	}
}

func TestDecode_UnknownEscape(t *testing.T) {
	_, err := Decode(`broken\qescape`)
	require.Error(t, err)
	var ue *UnknownEscapeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, byte('q'), ue.Trigger)
}

func TestDecode_TruncatedEscape(t *testing.T) {
	_, err := Decode(`ends with backslash\`)
	require.Error(t, err)
	var ue *UnknownEscapeError
	assert.ErrorAs(t, err, &ue)
}

func TestDecode_MalformedHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no digits", `\x\`},
		{"invalid digit", `\x4g\`},
		{"unterminated", `\x41`},
		{"beyond max scalar", `\x110000\`},
		{"surrogate", `\xd800\`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.in)
			require.Error(t, err)
			var he *HexEscapeError
			assert.ErrorAs(t, err, &he)
		})
	}
}
