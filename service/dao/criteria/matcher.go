// Package criteria matches stored entities against dao parameters.
package criteria

import (
	"github.com/viant/actiongate/service/dao"
)

// MatchValue reports whether value satisfies the named parameter. A missing
// parameter matches everything; a slice value matches any of its elements.
func MatchValue(name, value string, parameters []*dao.Parameter) bool {
	parameter := dao.Lookup(name, parameters)
	if parameter == nil {
		return true
	}
	switch actual := parameter.Value.(type) {
	case string:
		return value == actual
	case []string:
		if len(actual) == 0 {
			return true
		}
		for _, candidate := range actual {
			if value == candidate {
				return true
			}
		}
		return false
	}
	return true
}

// FilterByStatus reports whether status satisfies the Status parameter.
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	return MatchValue(dao.ParamStatus, status, parameters)
}
