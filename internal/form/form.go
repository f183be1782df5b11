// Package form models server side form state: field values, touched flags
// and validation errors, plus field adapters that render from it.
package form

import "strings"

// ValidateFunc returns validation errors keyed by field name.
type ValidateFunc func(values map[string]string) map[string]string

// Form holds the state of a single form submission. It is not safe for
// concurrent use.
type Form struct {
	// Validate computes errors for the current values; nil means always valid
	Validate ValidateFunc
	// ValidateOnChange makes Change validate after every update
	ValidateOnChange bool

	values  map[string]string
	touched map[string]bool
	errors  map[string]string
}

// New creates a form with the given initial values.
func New(initial map[string]string, validate ValidateFunc) *Form {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Form{
		Validate: validate,
		values:   values,
		touched:  map[string]bool{},
		errors:   map[string]string{},
	}
}

// Value returns the value of name.
func (f *Form) Value(name string) string {
	return f.values[name]
}

// Values returns a copy of all values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Touched reports whether name was interacted with.
func (f *Form) Touched(name string) bool {
	return f.touched[name]
}

// Error returns the current validation error of name.
func (f *Form) Error(name string) string {
	return f.errors[name]
}

// Errors returns a copy of all validation errors.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Valid reports whether there are no validation errors.
func (f *Form) Valid() bool {
	return len(f.errors) == 0
}

// SetFieldValue sets name to value and validates when shouldValidate is set.
func (f *Form) SetFieldValue(name, value string, shouldValidate bool) {
	f.values[name] = value
	if shouldValidate {
		f.ValidateForm()
	}
}

// SetFieldTouched sets the touched flag of name and validates when
// shouldValidate is set.
func (f *Form) SetFieldTouched(name string, touched, shouldValidate bool) {
	f.touched[name] = touched
	if shouldValidate {
		f.ValidateForm()
	}
}

// Change is the generic input handler: it sets the value and validates
// according to ValidateOnChange.
func (f *Form) Change(name, value string) {
	f.SetFieldValue(name, value, f.ValidateOnChange)
}

// ValidateForm recomputes all errors and returns them.
func (f *Form) ValidateForm() map[string]string {
	f.errors = map[string]string{}
	if f.Validate != nil {
		for k, v := range f.Validate(f.Values()) {
			if v != "" {
				f.errors[k] = v
			}
		}
	}
	return f.Errors()
}

// Submit marks every known field touched and validates. It returns true
// when the form is valid.
func (f *Form) Submit(fields ...string) bool {
	for name := range f.values {
		f.touched[name] = true
	}
	for _, name := range fields {
		f.touched[name] = true
	}
	f.ValidateForm()
	return f.Valid()
}

// Required returns a ValidateFunc reporting "Required" for every listed
// field whose value is blank.
func Required(fields ...string) ValidateFunc {
	return func(values map[string]string) map[string]string {
		errs := map[string]string{}
		for _, name := range fields {
			if strings.TrimSpace(values[name]) == "" {
				errs[name] = "Required"
			}
		}
		return errs
	}
}

// Combine runs every validator in order. The first error reported for a
// field wins.
func Combine(fns ...ValidateFunc) ValidateFunc {
	return func(values map[string]string) map[string]string {
		errs := map[string]string{}
		for _, fn := range fns {
			for k, v := range fn(values) {
				if _, ok := errs[k]; !ok && v != "" {
					errs[k] = v
				}
			}
		}
		return errs
	}
}

// FieldID returns the DOM id of a field: form-<type>-<name>-field, with
// dots in the name replaced by dashes.
func FieldID(name, fieldType string) string {
	return "form-" + fieldType + "-" + strings.ReplaceAll(name, ".", "-") + "-field"
}
