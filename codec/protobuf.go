package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

// Protobuf serializes generated messages. ctor returns an empty message to
// decode into, e.g. func() *pb.UserList { return new(pb.UserList) }.
type Protobuf[T proto.Message] struct {
	ctor func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errors.New("codec: protobuf codec without constructor")
	}
	m := c.ctor()
	err := proto.Unmarshal(b, m)
	return m, err
}
