package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldID(t *testing.T) {
	assert.Equal(t, "form-dropdown-scenario-field", FieldID("scenario", "dropdown"))
	assert.Equal(t, "form-input-source-git-url-field", FieldID("source.git.url", "input"))
}

func TestForm_SetFieldValue(t *testing.T) {
	f := New(map[string]string{"name": "demo"}, Required("scenario"))

	f.SetFieldValue("scenario", "", false)
	assert.Empty(t, f.Errors(), "no validation without shouldValidate")

	f.SetFieldValue("scenario", "", true)
	assert.Equal(t, "Required", f.Error("scenario"))

	f.SetFieldValue("scenario", "its-a", true)
	assert.Empty(t, f.Error("scenario"))
	assert.True(t, f.Valid())
	assert.Equal(t, map[string]string{"name": "demo", "scenario": "its-a"}, f.Values())
}

func TestForm_SetFieldTouched(t *testing.T) {
	f := New(nil, Required("scenario"))

	f.SetFieldTouched("scenario", true, false)
	assert.True(t, f.Touched("scenario"))
	assert.Empty(t, f.Error("scenario"))

	f.SetFieldTouched("scenario", true, true)
	assert.Equal(t, "Required", f.Error("scenario"))
}

func TestForm_Change(t *testing.T) {
	f := New(nil, Required("scenario"))
	f.Change("scenario", "")
	assert.Empty(t, f.Errors())

	f.ValidateOnChange = true
	f.Change("scenario", "")
	assert.Equal(t, "Required", f.Error("scenario"))
}

func TestForm_Submit(t *testing.T) {
	f := New(map[string]string{"name": "demo"}, Required("scenario"))

	assert.False(t, f.Submit("scenario"))
	assert.True(t, f.Touched("name"))
	assert.True(t, f.Touched("scenario"))
	assert.Equal(t, "Required", f.Error("scenario"))
}

func TestForm_CopiesAreIndependent(t *testing.T) {
	initial := map[string]string{"a": "1"}
	f := New(initial, nil)
	initial["a"] = "2"
	assert.Equal(t, "1", f.Value("a"))

	values := f.Values()
	values["a"] = "3"
	assert.Equal(t, "1", f.Value("a"))
}

func TestCombine_FirstErrorWins(t *testing.T) {
	always := func(msg string) ValidateFunc {
		return func(map[string]string) map[string]string {
			return map[string]string{"scenario": msg, "other": ""}
		}
	}
	validate := Combine(Required("scenario"), always("second"), always("third"))

	assert.Equal(t, map[string]string{"scenario": "Required"}, validate(nil))
	assert.Equal(t, map[string]string{"scenario": "second"}, validate(map[string]string{"scenario": "x"}))
}
