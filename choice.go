package fields

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// ChoiceField constrains a scalar to a fixed enumerated set of legal values.
// Each choice maps to a compact ordinal for storage; the mapping follows
// declaration order (after dropping duplicates) and is stable for the life
// of the schema. Changing the choice set after data has been persisted under
// ordinal encoding is the caller's responsibility.
type ChoiceField struct {
	choices  []any
	ordinals map[any]int
	def      any
	err      error
}

// ChoiceOption configures a choice field declaration.
type ChoiceOption func(*ChoiceField)

// ChoiceDefault declares the value observed before the field is first set.
// The default must be a member of the choice set.
func ChoiceDefault(value any) ChoiceOption {
	return func(f *ChoiceField) {
		f.def = normalizeLoose(value)
	}
}

// Choice declares a field restricted to the given legal values. The set must
// be non-empty; duplicates are redundant and dropped. Membership is checked
// by equality, so choice values must be comparable (strings, integers,
// booleans).
func Choice(choices []any, opts ...ChoiceOption) *ChoiceField {
	f := &ChoiceField{
		ordinals: map[any]int{},
	}
	for _, choice := range choices {
		normalized := normalizeLoose(choice)
		if normalized == nil {
			f.err = fmt.Errorf("choice values must not be nil")
			break
		}
		if !reflect.TypeOf(normalized).Comparable() {
			f.err = fmt.Errorf("choice value %v of type %T is not comparable", normalized, normalized)
			break
		}
		if _, exists := f.ordinals[normalized]; exists {
			continue
		}
		f.ordinals[normalized] = len(f.choices)
		f.choices = append(f.choices, normalized)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.err == nil && len(f.choices) == 0 {
		f.err = fmt.Errorf("choice set must not be empty")
	}
	if f.err == nil && f.def != nil {
		if _, ok := f.ordinals[f.def]; !ok {
			f.err = fmt.Errorf("default %v is not a member of the choice set", f.def)
		}
	}
	return f
}

func (f *ChoiceField) buildError() error {
	if f == nil {
		return fmt.Errorf("nil choice descriptor")
	}
	return f.err
}

func (f *ChoiceField) Kind() Kind { return KindChoice }

func (f *ChoiceField) Type() string {
	if f == nil || len(f.choices) == 0 {
		return "enum"
	}
	return fmt.Sprintf("enum<%T>", f.choices[0])
}

func (f *ChoiceField) Default() any {
	if f == nil {
		return nil
	}
	return f.def
}

// Choices returns the legal values in ordinal order.
func (f *ChoiceField) Choices() []any {
	if f == nil {
		return nil
	}
	return append([]any(nil), f.choices...)
}

// Validate rejects values outside the declared set, naming the offending
// value and the legal choices.
func (f *ChoiceField) Validate(value any) error {
	if value == nil {
		return nil
	}
	if _, err := f.ordinalOf(normalizeLoose(value)); err != nil {
		return err
	}
	return nil
}

func (f *ChoiceField) normalize(value any) (any, error) {
	normalized := normalizeLoose(value)
	if _, err := f.ordinalOf(normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// Ordinal returns the stable storage ordinal for a legal value.
func (f *ChoiceField) Ordinal(value any) (int, error) {
	return f.ordinalOf(normalizeLoose(value))
}

func (f *ChoiceField) ordinalOf(value any) (int, error) {
	if value == nil || !reflect.TypeOf(value).Comparable() {
		return 0, &ValidationError{Value: value, Choices: f.Choices()}
	}
	ordinal, ok := f.ordinals[value]
	if !ok {
		return 0, &ValidationError{Value: value, Choices: f.Choices()}
	}
	return ordinal, nil
}

// Serialize encodes the value's ordinal as an unsigned varint.
func (f *ChoiceField) Serialize(value any) ([]byte, error) {
	ordinal, err := f.ordinalOf(normalizeLoose(value))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(ordinal))
	return buf[:n], nil
}

// Deserialize maps a stored ordinal back to its choice value. Ordinals
// outside the declared set and trailing bytes are corrupt payloads.
func (f *ChoiceField) Deserialize(data []byte) (any, error) {
	reader := bytes.NewReader(data)
	ordinal, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, newDecodeError("", "choice", fmt.Errorf("read ordinal: %w", err))
	}
	if reader.Len() != 0 {
		return nil, newDecodeError("", "choice", fmt.Errorf("%d trailing bytes after ordinal", reader.Len()))
	}
	if ordinal >= uint64(len(f.choices)) {
		return nil, newDecodeError("", "choice", fmt.Errorf("ordinal %d outside choice set of %d", ordinal, len(f.choices)))
	}
	return f.choices[ordinal], nil
}
