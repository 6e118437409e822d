package core

import (
	"strings"

	"github.com/petab-dev/petab/expr"
	"github.com/petab-dev/petab/model"
)

// SymbolClass says what kind of thing an identifier names.
type SymbolClass int

const (
	// SymParameter is a parameter-table parameter.
	SymParameter SymbolClass = iota

	// SymConstant, SymDifferential, and SymAlgebraic are model
	// entities.
	SymConstant
	SymDifferential
	SymAlgebraic

	// SymObservable is an observable-table observable.
	SymObservable

	// SymPlaceholder is a measurement-bound free parameter in an
	// observable or noise formula.
	SymPlaceholder

	// SymMapping is a mapping-table alias for another symbol.
	SymMapping

	// SymTime is the reserved identifier for the current
	// simulated absolute time.
	SymTime
)

func (c SymbolClass) String() string {
	switch c {
	case SymParameter:
		return "parameter"
	case SymConstant:
		return "constant"
	case SymDifferential:
		return "differential"
	case SymAlgebraic:
		return "algebraic"
	case SymObservable:
		return "observable"
	case SymPlaceholder:
		return "placeholder"
	case SymMapping:
		return "mapping"
	case SymTime:
		return "time"
	}
	return "unknown"
}

// reserved holds the keywords that cannot name user entities.  The
// check is case-insensitive: "Time" and "TRUE" are just as
// unavailable as "time" and "true".
var reserved = map[string]bool{
	"time":  true,
	"true":  true,
	"false": true,
	"inf":   true,
	"nan":   true,
}

// ValidID reports whether s matches the PEtab identifier grammar
// [A-Za-z_][A-Za-z0-9_]*.
func ValidID(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
		case 'a' <= c && c <= 'z':
		case 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Reserved reports whether s is a reserved word or a builtin math
// function name, case-insensitively: "Sin" is as unavailable as
// "sin".
func Reserved(s string) bool {
	lower := strings.ToLower(s)
	return reserved[lower] || expr.IsBuiltin(lower)
}

// Registry is the single global namespace of a PEtab problem.  All
// tables, the model, and the mapping table share one identifier
// space; a collision anywhere is an error.
//
// A Registry is populated once at problem-load time and is read-only
// during simulation.
type Registry struct {
	classes map[string]SymbolClass

	// aliases maps a mapping-table alias to the identifier it
	// stands for.
	aliases map[string]string
}

// NewRegistry makes an empty Registry.  The identifier "time" is
// pre-resolved to SymTime.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]SymbolClass),
		aliases: make(map[string]string),
	}
}

// Register adds an identifier with its class.
func (r *Registry) Register(id string, class SymbolClass) error {
	if !ValidID(id) {
		return &BadIdentifier{ID: id}
	}
	if Reserved(id) {
		return &ReservedIdentifier{ID: id}
	}
	if prev, have := r.classes[id]; have {
		return &DuplicateIdentifier{ID: id, First: prev, Second: class}
	}
	r.classes[id] = class
	return nil
}

// RegisterEntities registers every entity of a model.
func (r *Registry) RegisterEntities(m model.Model) error {
	for id, kind := range m.Entities() {
		var class SymbolClass
		switch kind {
		case model.Constant:
			class = SymConstant
		case model.Differential:
			class = SymDifferential
		default:
			class = SymAlgebraic
		}
		if err := r.Register(id, class); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAlias adds a mapping-table alias for target.
func (r *Registry) RegisterAlias(alias, target string) error {
	if err := r.Register(alias, SymMapping); err != nil {
		return err
	}
	r.aliases[alias] = target
	return nil
}

// Resolve returns the class of an identifier.  "time" resolves to
// SymTime.  Aliases are not followed; see Canonical.
func (r *Registry) Resolve(id string) (SymbolClass, error) {
	if id == "time" {
		return SymTime, nil
	}
	class, have := r.classes[id]
	if !have {
		return 0, &UnknownSymbol{ID: id}
	}
	return class, nil
}

// Canonical follows mapping aliases to the identifier they name.
// Non-aliases canonicalize to themselves.
func (r *Registry) Canonical(id string) string {
	seen := 0
	for {
		target, have := r.aliases[id]
		if !have {
			return id
		}
		id = target
		if seen++; seen > len(r.aliases) {
			// Alias cycle.  Load-time validation rejects
			// these, so just stop.
			return id
		}
	}
}

// ResolveTarget resolves an identifier after following aliases.
func (r *Registry) ResolveTarget(id string) (SymbolClass, error) {
	return r.Resolve(r.Canonical(id))
}
