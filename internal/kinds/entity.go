package kinds

import (
	"strings"

	"rosterline/internal/domain"
	"rosterline/internal/props"
	"rosterline/internal/validation"
)

type WorkerProps struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

type LocationProps struct {
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Capacity *int   `mapstructure:"capacity"`
}

var (
	workerFields   = []string{"name", "email"}
	locationFields = []string{"name", "address", "capacity"}
	defaultFields  = []string{"name"}
)

// Worker is the contract for person entities.
type Worker struct{}

func (Worker) Name() string             { return domain.EntityPerson }
func (Worker) DeclaredFields() []string { return workerFields }
func (Worker) sealedEntity()            {}

func (Worker) Validate(en *domain.Entity, attrs map[string]any, mode validation.Mode) validation.FieldErrors {
	en.Properties = project(en.Properties, attrs, workerFields)
	if mode != validation.Validating {
		return nil
	}
	var view WorkerProps
	errs := props.Decode(en.Properties, &view)
	requireText(en.Properties, "name", &errs)
	if !errs.Has(props.Path("email")) {
		if email, ok := props.String(en.Properties, "email"); !ok {
			errs.Add("email", "can't be blank")
		} else if !strings.Contains(email, "@") {
			errs.Add("email", "must be valid")
		}
	}
	if len(errs) == 0 {
		en.Properties = normalize(en.Properties, view)
	}
	return errs
}

// Location is the contract for location entities.
type Location struct{}

func (Location) Name() string             { return domain.EntityLocation }
func (Location) DeclaredFields() []string { return locationFields }
func (Location) sealedEntity()            {}

func (Location) Validate(en *domain.Entity, attrs map[string]any, mode validation.Mode) validation.FieldErrors {
	en.Properties = project(en.Properties, attrs, locationFields)
	if mode != validation.Validating {
		return nil
	}
	var view LocationProps
	errs := props.Decode(en.Properties, &view)
	requireText(en.Properties, "name", &errs)
	if view.Capacity != nil && *view.Capacity < 0 {
		errs.Add(props.Path("capacity"), "must be greater than or equal to 0")
	}
	if len(errs) == 0 {
		en.Properties = normalize(en.Properties, view)
	}
	return errs
}

// DefaultEntity carries a display name and applies no rules.
type DefaultEntity struct{}

func (DefaultEntity) Name() string             { return DefaultName }
func (DefaultEntity) DeclaredFields() []string { return defaultFields }
func (DefaultEntity) sealedEntity()            {}

func (DefaultEntity) Validate(en *domain.Entity, attrs map[string]any, _ validation.Mode) validation.FieldErrors {
	en.Properties = project(en.Properties, attrs, defaultFields)
	return nil
}
