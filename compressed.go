package fields

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm a compressed field persists with.
// The tag is written into every encoded payload (1 byte), so these values
// are format constants: changing them breaks stored data.
type Compression uint8

const (
	// CompressionNone stores the logical bytes unchanged. Also used as the
	// in-payload fallback when a block compressor reports the data
	// incompressible.
	CompressionNone Compression = 0

	// CompressionGzip uses DEFLATE via klauspost/compress/gzip.
	CompressionGzip Compression = 1

	// CompressionZstd uses zstd at SpeedDefault. Best ratios for text-like
	// content.
	CompressionZstd Compression = 2

	// CompressionLZ4 uses LZ4 block compression. Fast default for binary
	// content.
	CompressionLZ4 Compression = 3
)

// String returns the human-readable name of a compression tag.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression tag from its string representation.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("fields: unknown compression %q", name)
	}
}

// zstdEncoder and zstdDecoder are reused across descriptors. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("fields: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("fields: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressedField stores a value that is compressed at the persistence
// boundary and plain in memory. Callers always see the logical value;
// compression happens only inside Serialize/Deserialize.
//
// Persisted layout, fixed per schema version:
//
//	uvarint logical byte length | 1-byte compression tag | payload
//
// The tag normally equals the declared scheme; it is CompressionNone when
// the block compressor reported the logical bytes incompressible.
type CompressedField struct {
	scheme Compression
	text   bool
	level  int
}

// CompressedOption configures a compressed field declaration.
type CompressedOption func(*CompressedField)

// CompressionLevel fixes the gzip compression level for the descriptor.
// Ignored by the other schemes, which run at their library defaults.
func CompressionLevel(level int) CompressedOption {
	return func(f *CompressedField) {
		f.level = level
	}
}

// CompressedText declares a text field compressed with the given scheme.
// The logical value is a string; its UTF-8 encoding is compressed at the
// persistence boundary.
func CompressedText(scheme Compression, opts ...CompressedOption) *CompressedField {
	return newCompressed(scheme, true, opts)
}

// CompressedBlob declares a binary field compressed with the given scheme.
func CompressedBlob(scheme Compression, opts ...CompressedOption) *CompressedField {
	return newCompressed(scheme, false, opts)
}

func newCompressed(scheme Compression, text bool, opts []CompressedOption) *CompressedField {
	f := &CompressedField{
		scheme: scheme,
		text:   text,
		level:  gzip.DefaultCompression,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *CompressedField) buildError() error {
	if f == nil {
		return fmt.Errorf("nil compressed descriptor")
	}
	switch f.scheme {
	case CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4:
		return nil
	default:
		return fmt.Errorf("unsupported compression %s", f.scheme)
	}
}

func (f *CompressedField) Kind() Kind { return KindCompressed }

func (f *CompressedField) Type() string {
	if f != nil && f.text {
		return "string"
	}
	return "bytes"
}

func (f *CompressedField) Default() any { return nil }

// Scheme returns the compression scheme fixed for this descriptor.
func (f *CompressedField) Scheme() Compression {
	if f == nil {
		return CompressionNone
	}
	return f.scheme
}

func (f *CompressedField) Validate(value any) error {
	if value == nil {
		return nil
	}
	_, err := f.normalize(value)
	return err
}

func (f *CompressedField) normalize(value any) (any, error) {
	if f.text {
		if text, ok := value.(string); ok {
			return text, nil
		}
		return nil, &ValidationError{Value: value, Reason: "expected string"}
	}
	if data, ok := value.([]byte); ok {
		return data, nil
	}
	return nil, &ValidationError{Value: value, Reason: "expected bytes"}
}

// Serialize compresses the logical value for storage.
func (f *CompressedField) Serialize(value any) ([]byte, error) {
	normalized, err := f.normalize(value)
	if err != nil {
		return nil, err
	}
	var logical []byte
	if f.text {
		logical = []byte(normalized.(string))
	} else {
		logical = normalized.([]byte)
	}

	tag := f.scheme
	compressed, err := f.compress(logical)
	if err != nil {
		if !isIncompressible(err) {
			return nil, fmt.Errorf("fields: compress %s: %w", f.scheme, err)
		}
		tag = CompressionNone
		compressed = logical
	}

	out := make([]byte, 0, binary.MaxVarintLen64+1+len(compressed))
	out = binary.AppendUvarint(out, uint64(len(logical)))
	out = append(out, byte(tag))
	out = append(out, compressed...)
	return out, nil
}

// Deserialize decompresses persisted bytes back into the logical value.
// Corrupt or foreign-format payloads yield a DecodeError.
func (f *CompressedField) Deserialize(data []byte) (any, error) {
	reader := bytes.NewReader(data)
	logicalLen, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, newDecodeError("", f.scheme.String(), fmt.Errorf("read length prefix: %w", err))
	}
	tagByte, err := reader.ReadByte()
	if err != nil {
		return nil, newDecodeError("", f.scheme.String(), fmt.Errorf("read compression tag: %w", err))
	}
	tag := Compression(tagByte)
	if tag != f.scheme && tag != CompressionNone {
		return nil, newDecodeError("", f.scheme.String(), fmt.Errorf("payload tagged %s, field expects %s", tag, f.scheme))
	}
	compressed := make([]byte, reader.Len())
	if _, err := io.ReadFull(reader, compressed); err != nil {
		return nil, newDecodeError("", f.scheme.String(), err)
	}

	logical, err := decompress(compressed, tag, int(logicalLen))
	if err != nil {
		return nil, newDecodeError("", f.scheme.String(), err)
	}

	if f.text {
		if !utf8.Valid(logical) {
			return nil, newDecodeError("", f.scheme.String(), fmt.Errorf("decompressed payload is not valid UTF-8"))
		}
		return string(logical), nil
	}
	return logical, nil
}

var errIncompressible = fmt.Errorf("data is incompressible")

func isIncompressible(err error) bool {
	return err == errIncompressible
}

func (f *CompressedField) compress(logical []byte) ([]byte, error) {
	switch f.scheme {
	case CompressionNone:
		return logical, nil

	case CompressionGzip:
		var buf bytes.Buffer
		writer, err := gzip.NewWriterLevel(&buf, f.level)
		if err != nil {
			return nil, err
		}
		if _, err := writer.Write(logical); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		return zstdEncoder.EncodeAll(logical, nil), nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(logical))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(logical, destination, nil)
		if err != nil {
			return nil, err
		}
		// CompressBlock returns 0 when it determines the data is
		// incompressible; the caller falls back to storing it raw.
		if written == 0 || written >= len(logical) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", f.scheme)
	}
}

func decompress(compressed []byte, tag Compression, logicalLen int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != logicalLen {
			return nil, fmt.Errorf("raw payload is %d bytes, expected %d", len(compressed), logicalLen)
		}
		return compressed, nil

	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer reader.Close()
		logical, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		if len(logical) != logicalLen {
			return nil, fmt.Errorf("gzip decompress: got %d bytes, expected %d", len(logical), logicalLen)
		}
		return logical, nil

	case CompressionZstd:
		logical, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, logicalLen))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(logical) != logicalLen {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(logical), logicalLen)
		}
		return logical, nil

	case CompressionLZ4:
		destination := make([]byte, logicalLen)
		read, err := lz4.UncompressBlock(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != logicalLen {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, logicalLen)
		}
		return destination, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag %d", uint8(tag))
	}
}
