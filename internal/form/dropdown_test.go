package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func scenarioField() *DropdownField {
	return &DropdownField{
		Name:     "scenario",
		Label:    "Scenario",
		HelpText: "Scenario to re-run",
		Required: true,
		Items: []DropdownItem{
			{Key: "its-a", Value: "its-a"},
			{Key: "its-b", Value: "its-b"},
		},
	}
}

func TestDropdownField_SelectWithoutOnChange(t *testing.T) {
	f := New(nil, Required("scenario"))
	d := scenarioField()

	d.Select(f, "its-b")

	assert.Equal(t, "its-b", f.Value("scenario"))
	assert.True(t, f.Touched("scenario"))

	view := d.View(f)
	assert.Equal(t, "its-b", view.Selected)
	assert.False(t, view.Options[0].Selected)
	assert.True(t, view.Options[1].Selected)
}

func TestDropdownField_SelectWithOnChange(t *testing.T) {
	f := New(map[string]string{"scenario": "its-a"}, Required("scenario"))
	d := scenarioField()

	var calls []string
	d.OnChange = func(v string) { calls = append(calls, v) }

	d.Select(f, "its-b")

	assert.Equal(t, []string{"its-b"}, calls)
	assert.Equal(t, "its-a", f.Value("scenario"), "form state is owned by the caller")
	assert.False(t, f.Touched("scenario"))
}

func TestDropdownField_SelectDefersValidation(t *testing.T) {
	f := New(nil, Required("scenario"))
	d := scenarioField()

	d.Select(f, "")
	assert.Empty(t, f.Error("scenario"), "selection does not validate by default")

	d.ValidateOnChange = true
	d.Select(f, "")
	assert.Equal(t, "Required", f.Error("scenario"))
}

func TestDropdownField_ValidateSelection(t *testing.T) {
	d := scenarioField()
	f := New(nil, Combine(Required("scenario"), d.ValidateSelection))

	tests := []struct {
		value string
		want  string
	}{
		{value: "its-a", want: ""},
		{value: "", want: "Required"},
		{value: "its-unknown", want: InvalidOption},
		{value: "Its-A", want: InvalidOption},
	}
	for _, tt := range tests {
		d.Select(f, tt.value)
		assert.Equal(t, tt.want == "", f.Submit(), "value %q", tt.value)
		assert.Equal(t, tt.want, f.Error("scenario"), "value %q", tt.value)
	}

	view := d.View(f)
	assert.True(t, view.Invalid())
	assert.Equal(t, InvalidOption, view.HelperTextInvalid)
}

func TestDropdownField_ViewInvalidOnlyWhenTouched(t *testing.T) {
	d := scenarioField()

	tests := []struct {
		name        string
		touched     bool
		validate    bool
		wantInvalid bool
	}{
		{name: "untouched and valid"},
		{name: "untouched with error", validate: true},
		{name: "touched without error", touched: true},
		{name: "touched with error", touched: true, validate: true, wantInvalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(nil, Required("scenario"))
			f.SetFieldTouched("scenario", tt.touched, tt.validate)

			view := d.View(f)
			assert.Equal(t, tt.wantInvalid, view.Invalid())
			if tt.wantInvalid {
				assert.Equal(t, ValidatedError, view.Validated)
				assert.Equal(t, "Required", view.HelperTextInvalid)
			} else {
				assert.Equal(t, ValidatedDefault, view.Validated)
				assert.Empty(t, view.HelperTextInvalid)
			}
		})
	}
}

func TestDropdownField_View(t *testing.T) {
	d := scenarioField()
	view := d.View(New(map[string]string{"scenario": "its-a"}, nil))

	assert.Equal(t, "form-dropdown-scenario-field", view.FieldID)
	assert.Equal(t, "form-dropdown-scenario-field-helper", view.AriaDescribedBy)
	assert.Equal(t, "Scenario", view.Label)
	assert.True(t, view.IsRequired)
	assert.Equal(t, "its-a", view.Selected)
	require.Len(t, view.Options, 2)

	d.HelpText = ""
	assert.Empty(t, d.View(New(nil, nil)).AriaDescribedBy)
}

func TestDropdownField_ValueOverride(t *testing.T) {
	d := scenarioField()
	override := "its-b"
	d.Value = &override

	view := d.View(New(map[string]string{"scenario": "its-a"}, nil))
	assert.Equal(t, "its-b", view.Selected)

	empty := ""
	d.Value = &empty
	assert.Empty(t, d.View(New(map[string]string{"scenario": "its-a"}, nil)).Selected,
		"an explicit empty override still wins")
}

func TestDropdownField_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := scenarioField()
		f := New(nil, Required("scenario"))
		withCallback := rapid.Bool().Draw(rt, "callback")
		calls := 0
		if withCallback {
			d.OnChange = func(string) { calls++ }
		}

		value := rapid.SampledFrom([]string{"", "its-a", "its-b"}).Draw(rt, "value")
		validateFirst := rapid.Bool().Draw(rt, "validateFirst")
		if validateFirst {
			f.ValidateForm()
		}

		d.Select(f, value)
		view := d.View(f)

		if withCallback {
			if calls != 1 {
				rt.Fatalf("callback called %d times", calls)
			}
			if f.Touched("scenario") || f.Value("scenario") != "" {
				rt.Fatalf("form state changed despite callback")
			}
		} else if f.Value("scenario") != value || !f.Touched("scenario") {
			rt.Fatalf("form state not updated")
		}

		wantInvalid := f.Touched("scenario") && f.Error("scenario") != ""
		if view.Invalid() != wantInvalid {
			rt.Fatalf("invalid=%v, want %v", view.Invalid(), wantInvalid)
		}
	})
}
