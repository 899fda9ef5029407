package fields

import (
	"errors"
	"reflect"
	"testing"
)

func TestPackedSerializeRoundtrip(t *testing.T) {
	t.Run("int16", func(t *testing.T) {
		field := Packed[int16]()
		data, err := field.Serialize([]int16{-1, 0, 300})
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if len(data) != 3*field.Width() {
			t.Fatalf("expected %d bytes, got %d", 3*field.Width(), len(data))
		}
		value, err := field.Deserialize(data)
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if !reflect.DeepEqual(value, []int16{-1, 0, 300}) {
			t.Fatalf("roundtrip mismatch: %v", value)
		}
	})

	t.Run("float64", func(t *testing.T) {
		field := Packed[float64]()
		data, err := field.Serialize([]float64{3.14, -2.5})
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		value, err := field.Deserialize(data)
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if !reflect.DeepEqual(value, []float64{3.14, -2.5}) {
			t.Fatalf("roundtrip mismatch: %v", value)
		}
	})
}

func TestPackedLittleEndianLayout(t *testing.T) {
	field := Packed[uint16]()
	data, err := field.Serialize([]uint16{0x0102})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !reflect.DeepEqual(data, []byte{0x02, 0x01}) {
		t.Fatalf("expected little-endian bytes, got %v", data)
	}
}

func TestPackedEmptySequence(t *testing.T) {
	field := Packed[int32]()
	data, err := field.Serialize([]int32{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected zero bytes, got %d", len(data))
	}
	value, err := field.Deserialize(nil)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if sequence := value.([]int32); len(sequence) != 0 {
		t.Fatalf("expected empty sequence, got %v", sequence)
	}
}

func TestPackedCoercesLooseSequences(t *testing.T) {
	field := Packed[int32]()
	if err := field.Validate([]any{int64(1), 2, uint8(3)}); err != nil {
		t.Fatalf("expected loose integers accepted, got %v", err)
	}
	data, err := field.Serialize([]any{int64(1), 2, uint8(3)})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	value, err := field.Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !reflect.DeepEqual(value, []int32{1, 2, 3}) {
		t.Fatalf("unexpected coerced sequence: %v", value)
	}
}

func TestPackedRejectsOutOfRangeElements(t *testing.T) {
	field := Packed[int8]()
	err := field.Validate([]any{int64(1), int64(1000)})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Value != int64(1000) {
		t.Fatalf("expected offending element reported, got %v", validationErr.Value)
	}

	unsigned := Packed[uint16]()
	if err := unsigned.Validate([]any{-1}); err == nil {
		t.Fatalf("expected negative value rejected for unsigned element type")
	}
}

func TestPackedRejectsNonSequences(t *testing.T) {
	field := Packed[int32]()
	if err := field.Validate("not a sequence"); err == nil {
		t.Fatalf("expected non-sequence rejected")
	}
	if err := field.Validate([]any{"text"}); err == nil {
		t.Fatalf("expected non-numeric element rejected")
	}
}

func TestPackedDeserializeRejectsPartialElements(t *testing.T) {
	field := Packed[int32]()
	_, err := field.Deserialize([]byte{1, 2, 3})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Scheme != "packed" {
		t.Fatalf("expected packed scheme, got %q", decodeErr.Scheme)
	}
}

func TestPackedWidth(t *testing.T) {
	if width := Packed[int8]().Width(); width != 1 {
		t.Fatalf("expected width 1, got %d", width)
	}
	if width := Packed[float64]().Width(); width != 8 {
		t.Fatalf("expected width 8, got %d", width)
	}
}
