package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name string
		in   IRValue
		want string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(-12), `-12`},
		{"true", IRBool(true), `true`},
		{"false", IRBool(false), `false`},
		{"null", IRNull{}, `null`},
		{"empty array", IRArray{}, `[]`},
		{"empty object", IRObject{}, `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := IRObject{
		"z": IRObject{"b": IRInt(1), "a": IRInt(2)},
		"a": IRArray{IRObject{"y": IRNull{}, "x": IRString("v")}},
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"x":"v","y":null}],"z":{"a":2,"b":1}}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(IRString("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point
	decomposed := IRString("e\u0301")
	composed := IRString("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	got, err := MarshalCanonical(IRString("line\n\"quoted\"\\"))
	require.NoError(t, err)
	assert.Equal(t, `"line\n\"quoted\"\\"`, string(got))
}

func TestMarshalCanonicalErrorPath(t *testing.T) {
	type bogus struct{ IRValue }
	_, err := MarshalCanonical(IRObject{"rows": IRArray{IRInt(1), bogus{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows: [1]: unsupported type")
}
