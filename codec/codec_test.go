package codec_test

import (
	"testing"

	"agentworld/codec"

	"github.com/stretchr/testify/require"
)

func TestMarshalCBORDeterministicKeyOrder(t *testing.T) {
	type payload struct {
		Zeta  int    `cbor:"zeta"`
		Alpha string `cbor:"alpha"`
	}

	a, err := codec.MarshalCBOR(map[string]any{"zeta": 1, "alpha": "x"})
	require.NoError(t, err)
	b, err := codec.MarshalCBOR(map[string]any{"alpha": "x", "zeta": 1})
	require.NoError(t, err)
	require.Equal(t, a, b, "canonical encoding must not depend on map construction order")

	_ = payload{}
}

func TestHashRoundtrip(t *testing.T) {
	data := []byte("hello world")
	h1 := codec.Hash(codec.BLAKE3, data)
	h2 := codec.Hash(codec.BLAKE3, data)
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, codec.Hash(codec.SHA256, data))
}

func TestHashCBORStable(t *testing.T) {
	v := map[string]any{"b": 2, "a": 1}
	h1, err := codec.HashCBOR(codec.BLAKE3, v)
	require.NoError(t, err)
	h2, err := codec.HashCBOR(codec.BLAKE3, v)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := codec.CanonicalJSON(map[string]any{"z": 1, "a": 2})
	require.NoError(t, err)
	b, err := codec.CanonicalJSON(map[string]any{"a": 2, "z": 1})
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
	require.Equal(t, `{"a":2,"z":1}`, string(a))
}
