package form

const dropdownType = "dropdown"

// Validated states of a field group.
const (
	ValidatedDefault = "default"
	ValidatedError   = "error"
)

// InvalidOption is reported for a value that is not one of the items.
const InvalidOption = "Not a valid option"

// DropdownItem is a selectable entry.
type DropdownItem struct {
	Key   string
	Value string
}

// DropdownField binds a dropdown to a form field.
type DropdownField struct {
	Name        string
	Label       string
	HelpText    string
	Required    bool
	Items       []DropdownItem
	Placeholder string
	FullWidth   bool

	// OnChange replaces the default form update when set
	OnChange func(value string)
	// ValidateOnChange validates the form when a value is selected
	ValidateOnChange bool
	// Value overrides the form managed value when non-nil
	Value *string
}

// Option is an item as rendered.
type Option struct {
	Key      string
	Value    string
	Selected bool
}

// FieldView is everything needed to render a dropdown field group.
type FieldView struct {
	FieldID           string
	Name              string
	Label             string
	HelperText        string
	HelperTextInvalid string
	Validated         string
	IsRequired        bool
	Selected          string
	Placeholder       string
	FullWidth         bool
	AriaDescribedBy   string
	Options           []Option
}

// Invalid reports whether the field renders in the error state.
func (v FieldView) Invalid() bool {
	return v.Validated == ValidatedError
}

// View renders the field against f. Errors are shown only once the field
// has been touched.
func (d *DropdownField) View(f *Form) FieldView {
	id := FieldID(d.Name, dropdownType)
	err := f.Error(d.Name)
	valid := !(f.Touched(d.Name) && err != "")

	view := FieldView{
		FieldID:     id,
		Name:        d.Name,
		Label:       d.Label,
		HelperText:  d.HelpText,
		Validated:   ValidatedDefault,
		IsRequired:  d.Required,
		Selected:    d.selected(f),
		Placeholder: d.Placeholder,
		FullWidth:   d.FullWidth,
	}
	if !valid {
		view.HelperTextInvalid = err
		view.Validated = ValidatedError
	}
	if d.HelpText != "" {
		view.AriaDescribedBy = id + "-helper"
	}

	view.Options = make([]Option, len(d.Items))
	for i, item := range d.Items {
		view.Options[i] = Option{
			Key:      item.Key,
			Value:    item.Value,
			Selected: item.Value == view.Selected,
		}
	}
	return view
}

// Select applies a selection. With OnChange set only the callback runs and
// the form is left alone; otherwise the value is stored and the field
// touched without validating.
func (d *DropdownField) Select(f *Form, value string) {
	if d.OnChange != nil {
		d.OnChange(value)
		return
	}
	f.SetFieldValue(d.Name, value, d.ValidateOnChange)
	f.SetFieldTouched(d.Name, true, false)
}

// ValidateSelection is a ValidateFunc rejecting values that are not among
// Items. Blank values are left to Required.
func (d *DropdownField) ValidateSelection(values map[string]string) map[string]string {
	value := values[d.Name]
	if value == "" {
		return nil
	}
	for _, item := range d.Items {
		if item.Value == value {
			return nil
		}
	}
	return map[string]string{d.Name: InvalidOption}
}

func (d *DropdownField) selected(f *Form) string {
	if d.Value != nil {
		return *d.Value
	}
	return f.Value(d.Name)
}
