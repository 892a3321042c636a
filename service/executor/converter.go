package executor

import (
	"fmt"

	"github.com/viant/structology/conv"
)

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true
	return conv.NewConverter(options)
}

// Decode converts free-form action parameters into target, a pointer to a typed input.
func Decode(parameters map[string]interface{}, target interface{}) error {
	if parameters == nil {
		return nil
	}
	if err := converter.Convert(parameters, target); err != nil {
		return fmt.Errorf("%w: %T: %v", ErrInvalidInput, target, err)
	}
	return nil
}
