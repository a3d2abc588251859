package registry

// ChangeType classifies a metadata change for plugin dispatch.
type ChangeType string

// Change types understood by plugin filtering.
const (
	ChangeCreate  ChangeType = "CREATE"
	ChangeUpsert  ChangeType = "UPSERT"
	ChangeUpdate  ChangeType = "UPDATE"
	ChangeDelete  ChangeType = "DELETE"
	ChangeRestate ChangeType = "RESTATE"
)

// Validator inspects an entity payload before a change is applied.
type Validator interface {
	// ShouldApply reports whether the validator cares about this change.
	ShouldApply(change ChangeType, entityName, aspectName string) bool

	// Validate returns an error to reject the change.
	Validate(e Entity) error
}

// MutationHook rewrites an entity payload while a change is applied.
type MutationHook interface {
	// ShouldApply reports whether the hook cares about this change.
	ShouldApply(change ChangeType, entityName, aspectName string) bool

	// Apply returns the possibly rewritten entity.
	Apply(e Entity) (Entity, error)
}

// SideEffect produces additional entities from a change, e.g. derived
// metadata emitted alongside a write.
type SideEffect interface {
	// ShouldApply reports whether the side effect cares about this change.
	ShouldApply(change ChangeType, entityName, aspectName string) bool

	// Produce returns entities generated by the change.
	Produce(e Entity) ([]Entity, error)
}

// PluginFactory holds registered plugins and filters them per change.
type PluginFactory struct {
	validators  []Validator
	hooks       []MutationHook
	sideEffects []SideEffect
}

// EmptyPluginFactory returns a factory with no plugins registered.
func EmptyPluginFactory() *PluginFactory { return &PluginFactory{} }

// NewPluginFactory returns a factory with the given plugins. Any slice
// may be nil.
func NewPluginFactory(validators []Validator, hooks []MutationHook, sideEffects []SideEffect) *PluginFactory {
	return &PluginFactory{validators: validators, hooks: hooks, sideEffects: sideEffects}
}

// Validators returns every registered validator.
func (f *PluginFactory) Validators() []Validator { return f.validators }

// MutationHooks returns every registered mutation hook.
func (f *PluginFactory) MutationHooks() []MutationHook { return f.hooks }

// SideEffects returns every registered side effect.
func (f *PluginFactory) SideEffects() []SideEffect { return f.sideEffects }

// ValidatorsFor returns the validators that apply to the given change.
func (f *PluginFactory) ValidatorsFor(change ChangeType, entityName, aspectName string) []Validator {
	var out []Validator
	for _, v := range f.validators {
		if v.ShouldApply(change, entityName, aspectName) {
			out = append(out, v)
		}
	}
	return out
}

// MutationHooksFor returns the mutation hooks that apply to the given
// change.
func (f *PluginFactory) MutationHooksFor(change ChangeType, entityName, aspectName string) []MutationHook {
	var out []MutationHook
	for _, h := range f.hooks {
		if h.ShouldApply(change, entityName, aspectName) {
			out = append(out, h)
		}
	}
	return out
}

// SideEffectsFor returns the side effects that apply to the given change.
func (f *PluginFactory) SideEffectsFor(change ChangeType, entityName, aspectName string) []SideEffect {
	var out []SideEffect
	for _, s := range f.sideEffects {
		if s.ShouldApply(change, entityName, aspectName) {
			out = append(out, s)
		}
	}
	return out
}
