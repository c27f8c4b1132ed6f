package kinds

import (
	"rosterline/internal/domain"
	"rosterline/internal/props"
	"rosterline/internal/temporal"
	"rosterline/internal/validation"
)

// ShiftProps is the typed view of a shift's extension map.
type ShiftProps struct {
	Location   string `mapstructure:"location"`
	Department string `mapstructure:"department"`
	Notes      string `mapstructure:"notes"`
}

// EmploymentProps is the typed view of an employment's extension map.
type EmploymentProps struct {
	Role         string   `mapstructure:"role"`
	ContractType string   `mapstructure:"contract_type"`
	Salary       *float64 `mapstructure:"salary"`
}

// ScheduleProps is the typed view of a schedule's extension map.
type ScheduleProps struct {
	Timezone       string `mapstructure:"timezone"`
	RecurrenceRule string `mapstructure:"recurrence_rule"`
	CoverageNotes  string `mapstructure:"coverage_notes"`
	Version        *int   `mapstructure:"version"`
	PublishedAt    string `mapstructure:"published_at"`
}

var (
	shiftFields      = []string{"location", "department", "notes"}
	employmentFields = []string{"role", "contract_type", "salary"}
	scheduleFields   = []string{"timezone", "recurrence_rule", "coverage_notes", "version", "published_at"}
)

// Shift requires an end_time and a location.
type Shift struct{}

func (Shift) Name() string             { return "shift" }
func (Shift) DeclaredFields() []string { return shiftFields }
func (Shift) sealedEvent()             {}

func (Shift) Validate(ev *domain.Event, attrs map[string]any, mode validation.Mode) validation.FieldErrors {
	ev.Properties = project(ev.Properties, attrs, shiftFields)
	if mode != validation.Validating {
		return nil
	}
	view, errs := Shift{}.View(*ev)
	if ev.EndTime == nil {
		errs.Add("end_time", "can't be blank")
	}
	requireText(ev.Properties, "location", &errs)
	if len(errs) == 0 {
		ev.Properties = normalize(ev.Properties, view)
	}
	return errs
}

// View decodes a shift's extension map.
func (Shift) View(ev domain.Event) (ShiftProps, validation.FieldErrors) {
	var view ShiftProps
	return view, props.Decode(ev.Properties, &view)
}

// Employment may be open-ended; it requires role and contract_type only.
type Employment struct{}

func (Employment) Name() string             { return "employment" }
func (Employment) DeclaredFields() []string { return employmentFields }
func (Employment) sealedEvent()             {}

func (Employment) Validate(ev *domain.Event, attrs map[string]any, mode validation.Mode) validation.FieldErrors {
	ev.Properties = project(ev.Properties, attrs, employmentFields)
	if mode != validation.Validating {
		return nil
	}
	view, errs := Employment{}.View(*ev)
	requireText(ev.Properties, "role", &errs)
	requireText(ev.Properties, "contract_type", &errs)
	if len(errs) == 0 {
		ev.Properties = normalize(ev.Properties, view)
	}
	return errs
}

// View decodes an employment's extension map.
func (Employment) View(ev domain.Event) (EmploymentProps, validation.FieldErrors) {
	var view EmploymentProps
	return view, props.Decode(ev.Properties, &view)
}

// Schedule requires an end_time, defaults timezone to UTC and accepts only a
// positive integer version.
type Schedule struct{}

func (Schedule) Name() string             { return "schedule" }
func (Schedule) DeclaredFields() []string { return scheduleFields }
func (Schedule) sealedEvent()             {}

func (Schedule) Validate(ev *domain.Event, attrs map[string]any, mode validation.Mode) validation.FieldErrors {
	ev.Properties = project(ev.Properties, attrs, scheduleFields)
	if tz, ok := ev.Properties["timezone"]; !ok || tz == nil || tz == "" {
		ev.Properties["timezone"] = "UTC"
	}
	if mode != validation.Validating {
		return nil
	}
	view, errs := Schedule{}.View(*ev)
	if ev.EndTime == nil {
		errs.Add("end_time", "can't be blank")
	}
	if view.Version != nil && *view.Version <= 0 {
		errs.Add(props.Path("version"), "must be a positive integer")
	}
	if view.PublishedAt != "" {
		if _, err := temporal.Parse(view.PublishedAt); err != nil {
			errs.Add(props.Path("published_at"), "must be a valid time")
		}
	}
	if len(errs) == 0 {
		ev.Properties = normalize(ev.Properties, view)
	}
	return errs
}

// View decodes a schedule's extension map.
func (Schedule) View(ev domain.Event) (ScheduleProps, validation.FieldErrors) {
	var view ScheduleProps
	return view, props.Decode(ev.Properties, &view)
}

// DefaultEvent applies no kind rules and declares no extension fields.
type DefaultEvent struct{}

func (DefaultEvent) Name() string             { return DefaultName }
func (DefaultEvent) DeclaredFields() []string { return nil }
func (DefaultEvent) sealedEvent()             {}

func (DefaultEvent) Validate(ev *domain.Event, _ map[string]any, _ validation.Mode) validation.FieldErrors {
	if ev.Properties == nil {
		ev.Properties = map[string]any{}
	}
	return nil
}
