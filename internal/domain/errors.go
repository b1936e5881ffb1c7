package domain

import (
	"errors"

	"github.com/joomcode/errorx"
)

var (
	Errors = errorx.NewNamespace("namknob")

	ParseError       = Errors.NewType("parse").ApplyModifiers(errorx.TypeModifierOmitStackTrace)
	ValidationError  = Errors.NewType("validation").ApplyModifiers(errorx.TypeModifierOmitStackTrace)
	ProcessingError  = Errors.NewType("processing").ApplyModifiers(errorx.TypeModifierOmitStackTrace)
	AggregationError = Errors.NewType("aggregation")
	DeliveryError    = Errors.NewType("delivery")
	NoInputError     = Errors.NewType("no_input").ApplyModifiers(errorx.TypeModifierOmitStackTrace)
)

var (
	PropertyTokens = errorx.RegisterProperty("tokens")
	PropertyValue  = errorx.RegisterProperty("value")
	PropertyFile   = errorx.RegisterProperty("file")
)

// Message returns the user-facing text of err, without the errorx type prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *errorx.Error
	if errors.As(err, &e) && e.Message() != "" {
		if cause := e.Cause(); cause != nil {
			return e.Message() + ": " + Message(cause)
		}
		return e.Message()
	}
	return err.Error()
}

// Tokens returns the offending tokens attached to a ParseError.
func Tokens(err error) []string {
	v, ok := errorx.ExtractProperty(err, PropertyTokens)
	if !ok {
		return nil
	}
	tokens, _ := v.([]string)
	return tokens
}

// Value returns the offending gain attached to a ValidationError.
func Value(err error) (float64, bool) {
	v, ok := errorx.ExtractProperty(err, PropertyValue)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func FileName(err error) string {
	v, ok := errorx.ExtractProperty(err, PropertyFile)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
