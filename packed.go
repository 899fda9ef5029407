package fields

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// PackedElement constrains packed arrays to fixed-width numeric types.
type PackedElement interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// PackedField stores a homogeneous fixed-width numeric sequence in a compact
// binary encoding. The element type is fixed per descriptor instance.
//
// Persisted layout, fixed per schema version: elements packed contiguously
// in little-endian byte order, element width times sequence length bytes
// total. The encoding is not self-describing; the element type must be
// documented per deployed schema version.
type PackedField[T PackedElement] struct{}

// Packed declares a packed numeric array field with element type T.
func Packed[T PackedElement]() *PackedField[T] {
	return &PackedField[T]{}
}

func (f *PackedField[T]) Kind() Kind { return KindPacked }

func (f *PackedField[T]) Type() string {
	var zero T
	return "[]" + reflect.TypeOf(zero).Kind().String()
}

func (f *PackedField[T]) Default() any { return nil }

// Width returns the fixed element width in bytes.
func (f *PackedField[T]) Width() int {
	var zero T
	return int(reflect.TypeOf(zero).Size())
}

// Validate accepts any ordered sequence whose elements are coercible to the
// fixed element type, rejecting elements outside the representable range.
func (f *PackedField[T]) Validate(value any) error {
	if value == nil {
		return nil
	}
	_, err := f.coerce(value)
	return err
}

func (f *PackedField[T]) normalize(value any) (any, error) {
	return f.coerce(value)
}

func (f *PackedField[T]) coerce(value any) ([]T, error) {
	if sequence, ok := value.([]T); ok {
		return append([]T(nil), sequence...), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &ValidationError{
			Value:  value,
			Reason: fmt.Sprintf("expected a sequence of %s elements, got %T", f.elementName(), value),
		}
	}

	out := make([]T, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		element, err := f.coerceElement(rv.Index(i).Interface())
		if err != nil {
			return nil, &ValidationError{
				Value:  rv.Index(i).Interface(),
				Reason: fmt.Sprintf("element %d: %v", i, err),
			}
		}
		out[i] = element
	}
	return out, nil
}

func (f *PackedField[T]) coerceElement(value any) (T, error) {
	var zero T
	target := reflect.TypeOf(zero)

	switch target.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(value)
		if !ok {
			return zero, fmt.Errorf("value %v of type %T is not an integer", value, value)
		}
		bits := target.Bits()
		min := int64(-1) << (bits - 1)
		max := int64(1)<<(bits-1) - 1
		if n < min || n > max {
			return zero, fmt.Errorf("value %d outside %s range [%d, %d]", n, f.elementName(), min, max)
		}
		return reflect.ValueOf(n).Convert(target).Interface().(T), nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		if raw, isBig := value.(uint64); isBig {
			u = raw
		} else {
			n, ok := toInt64(value)
			if !ok {
				return zero, fmt.Errorf("value %v of type %T is not an integer", value, value)
			}
			if n < 0 {
				return zero, fmt.Errorf("value %d outside %s range", n, f.elementName())
			}
			u = uint64(n)
		}
		bits := target.Bits()
		if bits < 64 && u > (uint64(1)<<bits)-1 {
			return zero, fmt.Errorf("value %d outside %s range", u, f.elementName())
		}
		return reflect.ValueOf(u).Convert(target).Interface().(T), nil

	case reflect.Float32:
		n, ok := toFloat64(value)
		if !ok {
			return zero, fmt.Errorf("value %v of type %T is not numeric", value, value)
		}
		if !math.IsInf(n, 0) && math.IsInf(float64(float32(n)), 0) {
			return zero, fmt.Errorf("value %v overflows float32", n)
		}
		return reflect.ValueOf(n).Convert(target).Interface().(T), nil

	default: // float64
		n, ok := toFloat64(value)
		if !ok {
			return zero, fmt.Errorf("value %v of type %T is not numeric", value, value)
		}
		return reflect.ValueOf(n).Convert(target).Interface().(T), nil
	}
}

func (f *PackedField[T]) elementName() string {
	var zero T
	return reflect.TypeOf(zero).Kind().String()
}

// Serialize packs the sequence into contiguous little-endian bytes. The
// empty sequence encodes to zero bytes.
func (f *PackedField[T]) Serialize(value any) ([]byte, error) {
	sequence, err := f.coerce(value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(sequence) * f.Width())
	if err := binary.Write(&buf, binary.LittleEndian, sequence); err != nil {
		return nil, fmt.Errorf("fields: pack %s: %w", f.Type(), err)
	}
	return buf.Bytes(), nil
}

// Deserialize unpacks little-endian bytes into the fixed element type. A
// byte length that is not a multiple of the element width is corrupt.
func (f *PackedField[T]) Deserialize(data []byte) (any, error) {
	width := f.Width()
	if len(data)%width != 0 {
		return nil, newDecodeError("", "packed", fmt.Errorf(
			"%d bytes is not a multiple of element width %d", len(data), width))
	}
	sequence := make([]T, len(data)/width)
	if len(sequence) == 0 {
		return sequence, nil
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, sequence); err != nil {
		return nil, newDecodeError("", "packed", err)
	}
	return sequence, nil
}
