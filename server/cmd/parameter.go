package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SubCommand is a parameter that only matches its own name, such as "export"
// in "/history export".
type SubCommand struct{}

// Varargs is a parameter that takes the rest of the command line.
type Varargs string

// Enum is implemented by string parameter types that only accept a fixed set
// of options.
type Enum interface {
	// Type returns the name shown for the parameter in usage.
	Type() string
	// Options returns the options the parameter accepts for a Source.
	Options(src Source) []string
}

var (
	subCommandType = reflect.TypeFor[SubCommand]()
	varargsType    = reflect.TypeFor[Varargs]()
	enumType       = reflect.TypeFor[Enum]()
)

// parameter is a single exported field of a Runnable.
type parameter struct {
	index    int
	name     string
	optional bool
	t        reflect.Type
}

func parameters(t reflect.Type) []parameter {
	var params []parameter
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		p := parameter{index: i, name: f.Name, t: f.Type}
		if tag, ok := f.Tag.Lookup("cmd"); ok {
			name, opts, _ := strings.Cut(tag, ",")
			if name != "" {
				p.name = name
			}
			p.optional = opts == "optional"
		}
		params = append(params, p)
	}
	return params
}

func verifyParameters(t reflect.Type) error {
	optional := false
	params := parameters(t)
	for i, p := range params {
		switch {
		case p.t == subCommandType, p.t == varargsType:
		case p.t.Implements(enumType) && p.t.Kind() == reflect.String:
		default:
			switch p.t.Kind() {
			case reflect.String, reflect.Int, reflect.Float64, reflect.Bool:
			default:
				return fmt.Errorf("parameter %s of %v has unsupported type %v", p.name, t, p.t)
			}
		}
		if p.t == varargsType && i != len(params)-1 {
			return fmt.Errorf("varargs parameter %s of %v must be last", p.name, t)
		}
		if optional && !p.optional {
			return fmt.Errorf("parameter %s of %v follows an optional parameter", p.name, t)
		}
		optional = optional || p.optional
	}
	return nil
}

func (p parameter) usage() string {
	name := p.name
	switch {
	case p.t == subCommandType:
		return p.name
	case p.t.Implements(enumType):
		name = reflect.Zero(p.t).Interface().(Enum).Type()
	case p.t == varargsType:
		name += "..."
	}
	if p.optional {
		return "[" + name + "]"
	}
	return "<" + name + ">"
}

var errMissing = errors.New("missing argument")

// parseArguments fills the parameters of the Runnable in v from words. The
// number of words consumed before an error occurred is returned.
func parseArguments(v reflect.Value, words []string, src Source) (int, error) {
	i := 0
	for _, p := range parameters(v.Type()) {
		if i >= len(words) {
			if p.optional {
				return i, nil
			}
			return i, fmt.Errorf("%s: %w", p.name, errMissing)
		}
		f := v.Field(p.index)
		if p.t == varargsType {
			f.SetString(strings.Join(words[i:], " "))
			return len(words), nil
		}
		if err := parseArgument(f, p, words[i], src); err != nil {
			return i, err
		}
		i++
	}
	if i != len(words) {
		return i, fmt.Errorf("unexpected argument %q", words[i])
	}
	return i, nil
}

func parseArgument(f reflect.Value, p parameter, word string, src Source) error {
	if p.t == subCommandType {
		if !strings.EqualFold(word, p.name) {
			return fmt.Errorf("expected %s, got %q", p.name, word)
		}
		return nil
	}
	if p.t.Implements(enumType) {
		for _, opt := range reflect.Zero(p.t).Interface().(Enum).Options(src) {
			if strings.EqualFold(opt, word) {
				f.SetString(opt)
				return nil
			}
		}
		return fmt.Errorf("invalid %s %q", p.name, word)
	}
	switch p.t.Kind() {
	case reflect.String:
		f.SetString(word)
	case reflect.Int:
		n, err := strconv.Atoi(word)
		if err != nil {
			return fmt.Errorf("%s: %q is not a whole number", p.name, word)
		}
		f.SetInt(int64(n))
	case reflect.Float64:
		n, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", p.name, word)
		}
		f.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(word)
		if err != nil {
			return fmt.Errorf("%s: %q is not true or false", p.name, word)
		}
		f.SetBool(b)
	}
	return nil
}
