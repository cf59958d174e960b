// Package codec turns values into bytes and back. Codecs are used for
// persisted values and for decoding HTTP response bodies.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
