package fields

// ScalarField stores a plain value with no behavior beyond type checking.
// Scalars are the usual sources for derived fields.
type ScalarField struct {
	valueType string
	def       any
}

// ScalarOption configures a scalar field declaration.
type ScalarOption func(*ScalarField)

// ScalarDefault declares the value observed before the field is first set.
// The default must satisfy the field's type check.
func ScalarDefault(value any) ScalarOption {
	return func(f *ScalarField) {
		f.def = value
	}
}

// String declares a plain string field.
func String(opts ...ScalarOption) *ScalarField { return newScalar("string", opts) }

// Int declares a plain integer field. Values are normalized to int64.
func Int(opts ...ScalarOption) *ScalarField { return newScalar("int64", opts) }

// Float declares a plain floating-point field. Values are normalized to
// float64.
func Float(opts ...ScalarOption) *ScalarField { return newScalar("float64", opts) }

// Bool declares a plain boolean field.
func Bool(opts ...ScalarOption) *ScalarField { return newScalar("bool", opts) }

// Bytes declares a plain binary field.
func Bytes(opts ...ScalarOption) *ScalarField { return newScalar("bytes", opts) }

// List declares a plain heterogeneous list field.
func List(opts ...ScalarOption) *ScalarField { return newScalar("list", opts) }

func newScalar(valueType string, opts []ScalarOption) *ScalarField {
	f := &ScalarField{valueType: valueType}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *ScalarField) Kind() Kind { return KindScalar }

func (f *ScalarField) Type() string {
	if f == nil {
		return ""
	}
	return f.valueType
}

func (f *ScalarField) Default() any {
	if f == nil || f.def == nil {
		return nil
	}
	normalized, err := f.normalize(f.def)
	if err != nil {
		return f.def
	}
	return normalized
}

func (f *ScalarField) Validate(value any) error {
	if value == nil {
		return nil
	}
	_, err := f.normalize(value)
	return err
}

func (f *ScalarField) normalize(value any) (any, error) {
	switch f.valueType {
	case "string":
		if text, ok := value.(string); ok {
			return text, nil
		}
	case "int64":
		if n, ok := toInt64(value); ok {
			return n, nil
		}
	case "float64":
		if n, ok := toFloat64(value); ok {
			return n, nil
		}
	case "bool":
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case "bytes":
		if data, ok := value.([]byte); ok {
			return data, nil
		}
	case "list":
		if list, ok := value.([]any); ok {
			return normalizeLoose(list), nil
		}
	}
	return nil, &ValidationError{
		Value:  value,
		Reason: "expected " + f.valueType,
	}
}
