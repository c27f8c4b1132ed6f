// Package kinds resolves a record's kind name to the contract that declares
// its extension fields and applies its kind-specific rules.
//
// Contracts are sealed: every implementation lives in this package and is
// listed once in a registry below. Resolution never fails; names without a
// specialized contract get the default contract for their record type.
// Adding a kind means adding one contract type and one registry entry.
package kinds

import (
	"rosterline/internal/domain"
	"rosterline/internal/props"
	"rosterline/internal/validation"
)

const DefaultName = "default"

// EventContract is the behavior selected by an event kind name.
type EventContract interface {
	Name() string
	DeclaredFields() []string
	// Validate folds the declared fields of attrs into ev.Properties and,
	// when mode is Validating, applies the kind's presence and format rules.
	Validate(ev *domain.Event, attrs map[string]any, mode validation.Mode) validation.FieldErrors
	sealedEvent()
}

// EntityContract is the behavior selected by an entity kind.
type EntityContract interface {
	Name() string
	DeclaredFields() []string
	Validate(en *domain.Entity, attrs map[string]any, mode validation.Mode) validation.FieldErrors
	sealedEntity()
}

var eventContracts = map[string]EventContract{
	"shift":      Shift{},
	"employment": Employment{},
	"schedule":   Schedule{},
}

var entityContracts = map[string]EntityContract{
	domain.EntityPerson:   Worker{},
	domain.EntityLocation: Location{},
}

// ResolveEvent returns the contract for an event kind name. Matching is
// exact and case-sensitive.
func ResolveEvent(name string) EventContract {
	if c, ok := eventContracts[name]; ok {
		return c
	}
	return DefaultEvent{}
}

// ResolveEntity returns the contract for an entity kind.
func ResolveEntity(kind string) EntityContract {
	if c, ok := entityContracts[kind]; ok {
		return c
	}
	return DefaultEntity{}
}

// SpecializedEventKinds lists the event kind names with their own contract.
func SpecializedEventKinds() []string {
	return []string{Shift{}.Name(), Employment{}.Name(), Schedule{}.Name()}
}

// ParticipationFields are the extension fields carried by participations.
var ParticipationFields = []string{"notes", "position"}

func project(bag, attrs map[string]any, declared []string) map[string]any {
	return props.Merge(bag, props.Project(attrs, declared))
}

func requireText(bag map[string]any, key string, errs *validation.FieldErrors) {
	if errs.Has(props.Path(key)) {
		return
	}
	if _, ok := props.String(bag, key); !ok {
		errs.Add(key, "can't be blank")
	}
}

// normalize writes the decoded typed view back so stored values carry
// their canonical types (numeric text becomes a number).
func normalize(bag map[string]any, view any) map[string]any {
	return props.Merge(bag, props.Encode(view))
}

// FlattenEvent reads an event's declared fields back out of its extension map.
func FlattenEvent(ev domain.Event) map[string]any {
	return props.Flatten(ev.Properties, ResolveEvent(ev.Kind).DeclaredFields())
}

// FlattenEntity reads an entity's declared fields back out of its extension map.
func FlattenEntity(en domain.Entity) map[string]any {
	return props.Flatten(en.Properties, ResolveEntity(en.Kind).DeclaredFields())
}
