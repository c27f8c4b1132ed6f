package kinds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rosterline/internal/domain"
	"rosterline/internal/validation"
)

func TestResolveIsTotal(t *testing.T) {
	assert.IsType(t, Shift{}, ResolveEvent("shift"))
	assert.IsType(t, Schedule{}, ResolveEvent("schedule"))
	assert.IsType(t, DefaultEvent{}, ResolveEvent("unknown-kind"))
	assert.IsType(t, DefaultEvent{}, ResolveEvent("Shift"))
	assert.IsType(t, DefaultEvent{}, ResolveEvent(""))
	assert.Empty(t, ResolveEvent("unknown-kind").DeclaredFields())

	assert.IsType(t, Worker{}, ResolveEntity(domain.EntityPerson))
	assert.IsType(t, DefaultEntity{}, ResolveEntity(domain.EntityOrganization))
}

func TestEveryRegisteredContractKeepsItsName(t *testing.T) {
	for name, c := range eventContracts {
		assert.Equal(t, name, c.Name())
	}
	for kind, c := range entityContracts {
		assert.Equal(t, kind, c.Name())
	}
	assert.ElementsMatch(t, SpecializedEventKinds(), []string{"shift", "employment", "schedule"})
}

func TestDraftModeOnlyProjects(t *testing.T) {
	ev := domain.Event{}
	errs := Shift{}.Validate(&ev, map[string]any{"notes": "bring boots", "status": "active"}, validation.Draft)
	assert.Empty(t, errs)
	assert.Equal(t, map[string]any{"notes": "bring boots"}, ev.Properties)
}

func TestShiftRules(t *testing.T) {
	end := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	ev := domain.Event{EndTime: &end}
	errs := Shift{}.Validate(&ev, map[string]any{"location": "  "}, validation.Validating)
	assert.Equal(t, []string{"can't be blank"}, errs.Messages("location"))
	assert.False(t, errs.Has("end_time"))
}

func TestScheduleDefaultsAndTypes(t *testing.T) {
	ev := domain.Event{}
	errs := Schedule{}.Validate(&ev, map[string]any{"timezone": 3, "version": 0, "published_at": "soon"}, validation.Validating)
	assert.True(t, errs.Has("end_time"))
	assert.Equal(t, []string{"must be text"}, errs.Messages("properties.timezone"))
	assert.Equal(t, []string{"must be a positive integer"}, errs.Messages("properties.version"))
	assert.Equal(t, []string{"must be a valid time"}, errs.Messages("properties.published_at"))

	ev = domain.Event{}
	Schedule{}.Validate(&ev, nil, validation.Draft)
	assert.Equal(t, "UTC", ev.Properties["timezone"])
}

func TestScheduleVersionOutOfRange(t *testing.T) {
	end := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	ev := domain.Event{EndTime: &end}
	errs := Schedule{}.Validate(&ev, map[string]any{"version": 1e19}, validation.Validating)
	assert.Equal(t, []string{"must be an integer"}, errs.Messages("properties.version"))

	ev = domain.Event{EndTime: &end}
	errs = Schedule{}.Validate(&ev, map[string]any{"version": "3"}, validation.Validating)
	assert.Empty(t, errs)
	assert.Equal(t, 3, ev.Properties["version"], "stored version is normalized to an integer")
	view, verrs := Schedule{}.View(ev)
	assert.Empty(t, verrs)
	assert.Equal(t, 3, *view.Version)
	assert.Equal(t, "UTC", view.Timezone)
}

func TestEmploymentSalaryMustBeNumeric(t *testing.T) {
	ev := domain.Event{}
	errs := Employment{}.Validate(&ev, map[string]any{"role": "Clerk", "contract_type": "part-time", "salary": "lots"}, validation.Validating)
	assert.Equal(t, []string{"must be a number"}, errs.Messages("properties.salary"))

	ev = domain.Event{}
	errs = Employment{}.Validate(&ev, map[string]any{"role": "Clerk", "contract_type": "part-time", "salary": "42000"}, validation.Validating)
	assert.Empty(t, errs)
	view, verrs := Employment{}.View(ev)
	assert.Empty(t, verrs)
	assert.Equal(t, 42000.0, *view.Salary)
}

func TestWorkerRules(t *testing.T) {
	en := domain.Entity{Kind: domain.EntityPerson}
	errs := Worker{}.Validate(&en, map[string]any{"name": "Ada"}, validation.Validating)
	assert.Equal(t, []string{"can't be blank"}, errs.Messages("email"))

	en = domain.Entity{Kind: domain.EntityPerson}
	errs = Worker{}.Validate(&en, map[string]any{"name": "Ada", "email": "ada@"}, validation.Validating)
	assert.Empty(t, errs, "the email check only looks for @")
}

func TestFlattenHelpers(t *testing.T) {
	ev := domain.Event{Kind: "shift", Properties: map[string]any{"location": "A", "stray": 1}}
	assert.Equal(t, map[string]any{"location": "A"}, FlattenEvent(ev))
	en := domain.Entity{Kind: domain.EntityResource, Properties: map[string]any{"name": "Forklift"}}
	assert.Equal(t, map[string]any{"name": "Forklift"}, FlattenEntity(en))
}
