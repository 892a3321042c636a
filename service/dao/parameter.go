package dao

// Parameter narrows List results. Stores ignore parameters they do not
// recognise.
type Parameter struct {
	Name  string
	Value interface{}
}

// Well known parameter names.
const (
	ParamStatus    = "Status"
	ParamContactID = "ContactID"
)

// NewParameter creates a parameter; several values are matched as a set.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Lookup returns the first parameter with name.
func Lookup(name string, parameters []*Parameter) *Parameter {
	for _, parameter := range parameters {
		if parameter != nil && parameter.Name == name {
			return parameter
		}
	}
	return nil
}
