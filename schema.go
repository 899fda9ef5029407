package fields

import (
	"fmt"
)

// Schema is an immutable, ordered mapping from field name to descriptor for
// one record kind. Schemas are built once at declaration time via Builder and
// never mutated afterwards; a descriptor instance must not be shared between
// schemas.
type Schema struct {
	kind  string
	names []string
	descs map[string]Descriptor
	cfg   schemaConfig
}

// Builder accumulates field declarations for a record kind. Declaration
// order is preserved and defines derived-field recomputation order as well
// as choice ordinal stability.
type Builder struct {
	kind   string
	names  []string
	descs  map[string]Descriptor
	opts   []Option
	errs   []error
}

// NewSchema starts a schema declaration for the named record kind.
func NewSchema(kind string, opts ...Option) *Builder {
	return &Builder{
		kind:  kind,
		descs: map[string]Descriptor{},
		opts:  opts,
	}
}

// Field registers desc under name. Registration problems are deferred to
// Build so declarations can stay fluent.
func (b *Builder) Field(name string, desc Descriptor) *Builder {
	if b == nil {
		return b
	}
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("fields: field name must not be empty"))
		return b
	}
	if desc == nil {
		b.errs = append(b.errs, fmt.Errorf("fields: descriptor for %q is nil", name))
		return b
	}
	if _, exists := b.descs[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("fields: field %q declared twice", name))
		return b
	}
	b.names = append(b.names, name)
	b.descs[name] = desc
	return b
}

// Build finalizes the declaration into an immutable Schema.
func (b *Builder) Build() (*Schema, error) {
	if b == nil {
		return nil, fmt.Errorf("fields: nil schema builder")
	}
	if b.kind == "" {
		return nil, fmt.Errorf("fields: schema kind must not be empty")
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.names) == 0 {
		return nil, fmt.Errorf("fields: schema %q declares no fields", b.kind)
	}

	schema := &Schema{
		kind:  b.kind,
		names: append([]string(nil), b.names...),
		descs: make(map[string]Descriptor, len(b.descs)),
		cfg:   applyOptions(b.opts),
	}
	for name, desc := range b.descs {
		schema.descs[name] = desc
	}
	for _, name := range schema.names {
		desc := schema.descs[name]
		if checker, ok := desc.(interface{ buildError() error }); ok {
			if err := checker.buildError(); err != nil {
				return nil, fmt.Errorf("fields: field %q: %w", name, err)
			}
		}
		if bindable, ok := desc.(interface{ bind(*Schema, string) error }); ok {
			if err := bindable.bind(schema, name); err != nil {
				return nil, err
			}
		}
	}
	return schema, nil
}

// Kind returns the record kind this schema describes.
func (s *Schema) Kind() string {
	if s == nil {
		return ""
	}
	return s.kind
}

// Fields returns the declared field names in declaration order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Descriptor returns the descriptor registered under name.
func (s *Schema) Descriptor(name string) (Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	desc, ok := s.descs[name]
	return desc, ok
}

// FieldSpec describes one declared field and its semantic type.
type FieldSpec struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Type string `json:"type"`
}

// Specs returns one FieldSpec per declared field, in declaration order.
func (s *Schema) Specs() []FieldSpec {
	if s == nil {
		return nil
	}
	specs := make([]FieldSpec, 0, len(s.names))
	for _, name := range s.names {
		desc := s.descs[name]
		specs = append(specs, FieldSpec{
			Name: name,
			Kind: desc.Kind(),
			Type: desc.Type(),
		})
	}
	return specs
}

// Document generates a schema document using the configured generator,
// falling back to the built-in spec-format generator.
func (s *Schema) Document() (SchemaDocument, error) {
	return s.schemaGenerator().Generate(s)
}

// DefaultSchemaGenerator returns the built-in spec-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return specGenerator{}
}

type specGenerator struct{}

func (specGenerator) Generate(schema *Schema) (SchemaDocument, error) {
	specs := schema.Specs()
	if specs == nil {
		specs = []FieldSpec{}
	}
	return SchemaDocument{
		Format:   SchemaFormatSpecs,
		Kind:     schema.Kind(),
		Document: specs,
	}, nil
}
