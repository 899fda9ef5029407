package fields

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoEvaluator = errors.New("fields: evaluator not configured")

// DeriveFunc computes a field value from the owning record. Implementations
// must be pure: no side effects beyond the returned value.
type DeriveFunc func(rec *Record) (any, error)

// DerivedField computes and stores a value from other fields instead of
// accepting assignments. Backed either by a DeriveFunc or by a derivation
// expression executed through the schema's Evaluator.
type DerivedField struct {
	fn           DeriveFunc
	expr         string
	materialized bool
	valueType    string

	schema *Schema
	name   string
}

// DerivedOption configures a derived field declaration.
type DerivedOption func(*DerivedField)

// DerivedLazy makes the field compute on each read instead of being
// recomputed on write and persisted.
func DerivedLazy() DerivedOption {
	return func(f *DerivedField) {
		f.materialized = false
	}
}

// DerivedType declares the semantic value type reported to the host schema
// layer. Defaults to "any".
func DerivedType(valueType string) DerivedOption {
	return func(f *DerivedField) {
		if valueType != "" {
			f.valueType = valueType
		}
	}
}

// Derive declares a field computed by fn. The value is materialized: it is
// recomputed after every write to the record and included in the encoded
// payload.
func Derive(fn DeriveFunc, opts ...DerivedOption) *DerivedField {
	f := &DerivedField{
		fn:           fn,
		materialized: true,
		valueType:    "any",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// DeriveExpr declares a field computed by evaluating expr against the
// record's current values. The expression runs on the schema's configured
// evaluator (expr-lang by default).
func DeriveExpr(expr string, opts ...DerivedOption) *DerivedField {
	f := &DerivedField{
		expr:         expr,
		materialized: true,
		valueType:    "any",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// LowerCase declares a derived field holding the lower-cased copy of the
// named sibling string field. The sibling is resolved at derive time, so the
// value always reflects the sibling's current content. An absent or nil
// sibling derives nil.
func LowerCase(source string, opts ...DerivedOption) *DerivedField {
	fn := func(rec *Record) (any, error) {
		value, err := rec.Get(source)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("source field %q holds %T, not a string", source, value)
		}
		return lowerOf(text), nil
	}
	opts = append([]DerivedOption{DerivedType("string")}, opts...)
	return Derive(fn, opts...)
}

// Length declares a derived field holding the length of the named sibling
// sequence field. An absent or nil sibling derives 0: length-of-nothing is
// zero, not nil.
func Length(source string, opts ...DerivedOption) *DerivedField {
	fn := func(rec *Record) (any, error) {
		value, err := rec.Get(source)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return int64(0), nil
		}
		n, err := sequenceLength(value)
		if err != nil {
			return nil, fmt.Errorf("source field %q: %w", source, err)
		}
		return n, nil
	}
	opts = append([]DerivedOption{DerivedType("int64")}, opts...)
	return Derive(fn, opts...)
}

// Transform declares a derived field holding fn applied to the named sibling
// field's current value. Like other materialized derivations it refreshes on
// every write, so the stored value always reflects the sibling. An absent or
// nil sibling derives nil without invoking fn.
func Transform(source string, fn func(value any) (any, error), opts ...DerivedOption) *DerivedField {
	derive := func(rec *Record) (any, error) {
		if fn == nil {
			return nil, fmt.Errorf("transform of %q declares no function", source)
		}
		value, err := rec.Get(source)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		return fn(value)
	}
	return Derive(derive, opts...)
}

func (f *DerivedField) Kind() Kind { return KindDerived }

func (f *DerivedField) Type() string {
	if f == nil || f.valueType == "" {
		return "any"
	}
	return f.valueType
}

func (f *DerivedField) Default() any { return nil }

// Validate always fails: derived fields are not independently settable.
func (f *DerivedField) Validate(any) error {
	return ErrDerivedAssignment
}

// Materialized reports whether the derived value is persisted and refreshed
// on write, versus computed lazily on each read.
func (f *DerivedField) Materialized() bool {
	if f == nil {
		return false
	}
	return f.materialized
}

// Derive computes the field value from rec using the declared function or
// expression.
func (f *DerivedField) Derive(rec *Record) (any, error) {
	if f == nil {
		return nil, fmt.Errorf("fields: nil derived descriptor")
	}
	if f.fn != nil {
		return f.fn(rec)
	}
	if f.expr == "" {
		return nil, fmt.Errorf("fields: derived field %q declares neither function nor expression", f.name)
	}
	return f.evaluate(rec)
}

func (f *DerivedField) evaluate(rec *Record) (any, error) {
	schema := rec.Schema()
	if schema == nil {
		schema = f.schema
	}
	evaluator, err := schema.resolveEvaluator()
	if err != nil {
		return nil, err
	}

	ctx := DeriveContext{
		Snapshot:   evaluationSnapshot(schema, rec),
		RecordKind: schema.Kind(),
		Field:      f.name,
	}.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, f.expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, f.expr, ctx.fieldLabel(), evalErr)
	schema.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     f.expr,
		Field:    ctx.fieldLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return normalizeLoose(value), nil
}

// evaluationSnapshot exposes every settable field to the expression
// environment. Fields not yet holding a value appear as their default, or as
// the zero of their declared type, so multi-source expressions stay evaluable
// while the record is only partially populated.
func evaluationSnapshot(schema *Schema, rec *Record) map[string]any {
	snapshot := rec.Values()
	if schema == nil {
		return snapshot
	}
	for _, name := range schema.names {
		if _, ok := snapshot[name]; ok {
			continue
		}
		desc := schema.descs[name]
		if _, derived := desc.(DerivedDescriptor); derived {
			continue
		}
		if def := desc.Default(); def != nil {
			snapshot[name] = def
			continue
		}
		snapshot[name] = zeroOfType(desc.Type())
	}
	return snapshot
}

func zeroOfType(valueType string) any {
	switch {
	case valueType == "int64" || strings.HasPrefix(valueType, "enum<int64"):
		return int64(0)
	case valueType == "float64" || strings.HasPrefix(valueType, "enum<float64"):
		return float64(0)
	case valueType == "bool" || strings.HasPrefix(valueType, "enum<bool"):
		return false
	case valueType == "bytes":
		return []byte{}
	case valueType == "list" || strings.HasPrefix(valueType, "[]"):
		return []any{}
	default:
		return ""
	}
}

// bind attaches the descriptor to its owning schema and field name. A
// derived descriptor instance belongs to exactly one field on one schema.
func (f *DerivedField) bind(schema *Schema, name string) error {
	if f == nil {
		return fmt.Errorf("fields: nil derived descriptor for %q", name)
	}
	if f.schema != nil {
		return fmt.Errorf("fields: derived descriptor for %q already attached to schema %q as %q",
			name, f.schema.Kind(), f.name)
	}
	f.schema = schema
	f.name = name
	return nil
}
