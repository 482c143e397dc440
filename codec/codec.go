// Package codec implements the canonical encoding used for every
// content-addressed payload in the world: deterministic CBOR with sorted
// map keys, plus the two hash algorithms a store may be configured with.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"lukechampine.com/blake3"
)

// ErrNonDeterministic is returned when a value cannot be encoded
// canonically (e.g. it contains a map with non-string keys that collide
// under canonical ordering, or a type cbor cannot represent).
var ErrNonDeterministic = fmt.Errorf("codec: value does not encode deterministically")

var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build canonical cbor mode: %v", err))
	}
	encMode = mode
}

// MarshalCBOR encodes v using the deterministic (RFC 8949 §4.2.1-style)
// canonical CBOR profile: map keys sorted by their encoded byte form,
// shortest-form integers, no indefinite-length items.
func MarshalCBOR(v any) ([]byte, error) {
	out, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonDeterministic, err)
	}
	return out, nil
}

// UnmarshalCBOR decodes canonical CBOR bytes into v.
func UnmarshalCBOR(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// CanonicalJSON re-marshals v with object keys in sorted order so that two
// semantically equal documents always hash to the same bytes. Manifests and
// a handful of legacy payloads are hashed this way instead of via CBOR.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal json: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("codec: normalize json: %w", err)
	}
	var buf bytes.Buffer
	if err := encodeCanonicalJSON(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonicalJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeCanonicalJSON(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonicalJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// Algorithm identifies which hash function a store uses. A store picks one
// algorithm at creation and never mixes it with the other: hashes from a
// BLAKE3 store are meaningless to a SHA-256 store and vice versa.
type Algorithm int

const (
	// BLAKE3 is the default algorithm for newly created stores.
	BLAKE3 Algorithm = iota
	// SHA256 is the fixed alternate algorithm (Open Question #1 in the
	// originating spec resolves "pick one per store, never mix" — this is
	// the other of the two choices it names).
	SHA256
)

func (a Algorithm) String() string {
	switch a {
	case BLAKE3:
		return "blake3"
	case SHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// Hash returns the lowercase-hex digest of data under the given algorithm.
func Hash(alg Algorithm, data []byte) string {
	switch alg {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// HashCBOR canonically encodes v and hashes the result.
func HashCBOR(alg Algorithm, v any) (string, error) {
	data, err := MarshalCBOR(v)
	if err != nil {
		return "", err
	}
	return Hash(alg, data), nil
}
