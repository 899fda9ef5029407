package fields

// ProgramCache stores compiled derivation programs keyed by expression
// strings. Implementations must be safe for concurrent use.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the schema.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *schemaConfig) {
		cfg.programCache = cache
	}
}
