package anystorage

import "encoding/json"

// Codec converts values to and from their persisted byte form. Encoding
// then decoding a value must yield a value equal to the original.
type Codec interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

var _ Codec = JSONCodec{}

// JSONCodec encodes values as JSON. It is the default codec for every
// backend.
type JSONCodec struct{}

// Marshal encodes value as JSON.
func (JSONCodec) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Unmarshal decodes JSON data into dest.
func (JSONCodec) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

var (
	_ InMemoryStorageOption   = CodecOption{}
	_ FileStorageOption       = CodecOption{}
	_ PreferenceStorageOption = CodecOption{}
	_ SecureStorageOption     = CodecOption{}
)

// CodecOption sets the codec on any backend.
type CodecOption struct {
	codec Codec
}

func (o CodecOption) applyInMemoryStorageOption(s *InMemoryStorage) {
	s.codec = o.codec
}

func (o CodecOption) applyFileStorageOption(s *FileStorage) {
	s.codec = o.codec
}

func (o CodecOption) applyPreferenceStorageOption(s *PreferenceStorage) {
	s.codec = o.codec
}

func (o CodecOption) applySecureStorageOption(s *SecureStorage) {
	s.codec = o.codec
}

// WithCodec sets the codec used to encode and decode values.
func WithCodec(c Codec) CodecOption {
	return CodecOption{codec: c}
}
