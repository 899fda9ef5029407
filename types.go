package fields

import (
	"fmt"
	"time"

	"github.com/goliatone/go-fields/pkg/activity"
)

// Kind identifies the behavior class of a field descriptor.
type Kind string

const (
	// KindScalar represents a plainly stored value with no extra behavior.
	KindScalar Kind = "scalar"
	// KindDerived represents a value computed from the owning record.
	KindDerived Kind = "derived"
	// KindChoice represents a scalar constrained to an enumerated set.
	KindChoice Kind = "choice"
	// KindCompressed represents a value compressed at the persistence boundary.
	KindCompressed Kind = "compressed"
	// KindPacked represents a fixed-width numeric sequence stored compactly.
	KindPacked Kind = "packed"
)

// Descriptor is the capability surface every field kind implements. A
// descriptor is attached to exactly one field name on exactly one schema at
// build time and is immutable thereafter.
type Descriptor interface {
	// Kind reports the descriptor's behavior class.
	Kind() Kind
	// Type reports the semantic value type exposed to the host schema layer
	// (e.g. "string", "int64", "[]int32", "bytes").
	Type() string
	// Validate reports whether value may be assigned to the field. A nil
	// value is always legal and means unset.
	Validate(value any) error
	// Default returns the value observed before the field is first set, or
	// nil when the descriptor declares no default.
	Default() any
}

// Serializer is implemented by descriptors that transform values at the
// persistence boundary. Serialize runs pre-persist, Deserialize post-load.
type Serializer interface {
	Serialize(value any) ([]byte, error)
	Deserialize(data []byte) (any, error)
}

// DerivedDescriptor is implemented by descriptors whose value is computed
// from the owning record rather than assigned.
type DerivedDescriptor interface {
	Descriptor
	// Derive computes the field's value from the record. It must be pure
	// with respect to everything except its own field slot.
	Derive(rec *Record) (any, error)
	// Materialized reports whether the derived value is recomputed and
	// stored on every write (true) or computed lazily on each read (false).
	Materialized() bool
}

// DeriveContext carries inputs handed to an evaluator when computing a
// derived value from an expression.
type DeriveContext struct {
	// Snapshot holds the owning record's current field values.
	Snapshot map[string]any
	// RecordKind names the schema the record belongs to.
	RecordKind string
	// Field names the derived field being computed.
	Field    string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx DeriveContext) withDefaultNow() DeriveContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx DeriveContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx DeriveContext) withDefaultMaps() DeriveContext {
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx DeriveContext) withDefaults() DeriveContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx DeriveContext) fieldLabel() string {
	if ctx.Field != "" {
		return ctx.Field
	}
	return "unknown"
}

// Evaluator executes derivation expressions against a derive context.
type Evaluator interface {
	Evaluate(ctx DeriveContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable derivation program.
type CompiledRule interface {
	Evaluate(ctx DeriveContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatSpecs represents the flattened field specs.
	SchemaFormatSpecs SchemaFormat = "specs"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Kind     string
	Document any
}

// SchemaGenerator transforms a field schema into a schema document. All
// implementations MUST be safe for concurrent use and handle nil inputs by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(schema *Schema) (SchemaDocument, error)
}

// Option configures schema-level behaviour.
type Option func(*schemaConfig)

type schemaConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          EvaluatorLogger
	schemaGenerator SchemaGenerator
	activityHooks   activity.Hooks
}

func applyOptions(opts []Option) schemaConfig {
	cfg := schemaConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator configures the evaluator used by expression-derived fields.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *schemaConfig) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *schemaConfig) {
		cfg.schemaGenerator = generator
	}
}

func (s *Schema) evaluatorLogger() EvaluatorLogger {
	if s != nil && s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopEvaluatorLogger{}
}

func (s *Schema) schemaGenerator() SchemaGenerator {
	if s == nil {
		return DefaultSchemaGenerator()
	}
	if s.cfg.schemaGenerator != nil {
		return s.cfg.schemaGenerator
	}
	return DefaultSchemaGenerator()
}

func (s *Schema) resolveEvaluator() (Evaluator, error) {
	if s == nil {
		return nil, ErrNoEvaluator
	}
	if s.cfg.evaluator != nil {
		return s.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := s.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := s.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*fields.exprEvaluator":
		return "expr"
	case "*fields.celEvaluator":
		return "cel"
	case "*fields.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
