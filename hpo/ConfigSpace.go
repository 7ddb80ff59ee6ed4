// Package hpo implements named hyperparameter configuration spaces.
//
// A ConfigSpace declares the tunable hyperparameters of an algorithm
// with their bounds and defaults; a Config is one concrete assignment.
// The training engine only reads named keys out of a Config and
// assumes the values were validated upstream; range enforcement is the
// job of whatever produced the Config.
package hpo

import "fmt"

// Kind denotes the type of a hyperparameter
type Kind int

const (
	FloatKind Kind = iota
	IntegerKind
	CategoricalKind
)

// Param declares a single named hyperparameter with its bounds (for
// numeric kinds), choices (for categorical kinds), and default.
type Param struct {
	Name    string
	Kind    Kind
	Lower   float64
	Upper   float64
	Choices []interface{}
	Default interface{}
}

// Float declares a float hyperparameter on [lower, upper]
func Float(name string, lower, upper, def float64) Param {
	return Param{
		Name:    name,
		Kind:    FloatKind,
		Lower:   lower,
		Upper:   upper,
		Default: def,
	}
}

// Integer declares an integer hyperparameter on [lower, upper]
func Integer(name string, lower, upper, def int) Param {
	return Param{
		Name:    name,
		Kind:    IntegerKind,
		Lower:   float64(lower),
		Upper:   float64(upper),
		Default: def,
	}
}

// Categorical declares a hyperparameter drawn from explicit choices
func Categorical(name string, choices []interface{},
	def interface{}) Param {
	return Param{
		Name:    name,
		Kind:    CategoricalKind,
		Choices: choices,
		Default: def,
	}
}

// ConfigSpace is a named collection of hyperparameter declarations
type ConfigSpace struct {
	Name   string
	params []Param
	byName map[string]int
}

// NewConfigSpace returns a ConfigSpace holding the given params
func NewConfigSpace(name string, params ...Param) ConfigSpace {
	byName := make(map[string]int, len(params))
	for i, p := range params {
		byName[p.Name] = i
	}
	return ConfigSpace{Name: name, params: params, byName: byName}
}

// Params returns the declared hyperparameters in declaration order
func (cs ConfigSpace) Params() []Param {
	return cs.params
}

// Get returns the declaration of a named hyperparameter
func (cs ConfigSpace) Get(name string) (Param, bool) {
	i, ok := cs.byName[name]
	if !ok {
		return Param{}, false
	}
	return cs.params[i], true
}

// DefaultConfiguration returns the Config holding every declared
// default
func (cs ConfigSpace) DefaultConfiguration() Config {
	config := make(Config, len(cs.params))
	for _, p := range cs.params {
		config[p.Name] = p.Default
	}
	return config
}

// Config is a concrete assignment of hyperparameter name to value
type Config map[string]interface{}

// Has returns whether the Config assigns the named hyperparameter
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Float returns the named value as a float64, coercing integer values
func (c Config) Float(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		panic(fmt.Sprintf("config: %q is not numeric", key))
	}
}

// Int returns the named value as an int, coercing integral floats
func (c Config) Int(key string) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		panic(fmt.Sprintf("config: %q is not numeric", key))
	}
}

// Bool returns the named value as a bool
func (c Config) Bool(key string) bool {
	v, ok := c[key].(bool)
	if !ok {
		panic(fmt.Sprintf("config: %q is not a bool", key))
	}
	return v
}

// String returns the named value as a string
func (c Config) String(key string) string {
	v, ok := c[key].(string)
	if !ok {
		panic(fmt.Sprintf("config: %q is not a string", key))
	}
	return v
}
