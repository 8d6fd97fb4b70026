// Package vars keeps track of the configuration values, their defaults and the
// environment variables that override them.
package vars

import (
	"fmt"
	"os"

	"github.com/sacnlogger/configsync/config/value"
)

// Levels of the messages that are collected by Merge and Validate.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type variable struct {
	value       value.Value
	defVal      string
	name        string
	envName     string
	description string
	required    bool

	// merged is set if the value has been replaced by its environment variable.
	merged bool
}

func (v *variable) describe() Variable {
	return Variable{
		Value:       v.value.String(),
		Default:     v.defVal,
		Name:        v.name,
		EnvName:     v.envName,
		Description: v.description,
		Required:    v.required,
		Merged:      v.merged,
	}
}

// Variable is the description of a configuration value at some point in time.
type Variable struct {
	Value       string
	Default     string
	Name        string
	EnvName     string
	Description string
	Required    bool
	Merged      bool
}

type message struct {
	level    string
	text     string
	variable Variable
}

// Variables is a registry of configuration values. The zero value is ready to use.
type Variables struct {
	vars   []*variable
	byName map[string]*variable
	logs   []message
}

// Register adds a value. Its current string representation becomes its default.
func (vs *Variables) Register(val value.Value, name, envName, description string, required bool) {
	v := &variable{
		value:       val,
		defVal:      val.String(),
		name:        name,
		envName:     envName,
		description: description,
		required:    required,
	}

	if vs.byName == nil {
		vs.byName = map[string]*variable{}
	}

	vs.vars = append(vs.vars, v)
	vs.byName[name] = v
}

// Transfer copies the merged state of the variables with the same name from vss.
func (vs *Variables) Transfer(vss *Variables) {
	for _, v := range vs.vars {
		if vss.IsMerged(v.name) {
			v.merged = true
		}
	}
}

func (vs *Variables) SetDefault(name string) {
	v := vs.findVariable(name)
	if v == nil {
		return
	}

	v.value.Set(v.defVal)
}

func (vs *Variables) Get(name string) (string, error) {
	v := vs.findVariable(name)
	if v == nil {
		return "", fmt.Errorf("variable '%s' not found", name)
	}

	return v.value.String(), nil
}

func (vs *Variables) Set(name, val string) error {
	v := vs.findVariable(name)
	if v == nil {
		return fmt.Errorf("variable '%s' not found", name)
	}

	return v.value.Set(val)
}

// Log adds a message for the named variable. Messages for unknown variables are dropped.
func (vs *Variables) Log(level, name string, format string, args ...interface{}) {
	v := vs.findVariable(name)
	if v == nil {
		return
	}

	vs.logs = append(vs.logs, message{
		level:    level,
		text:     fmt.Sprintf(format, args...),
		variable: v.describe(),
	})
}

// Merge replaces the values by the values of their environment variables, if set.
func (vs *Variables) Merge() {
	for _, v := range vs.vars {
		if len(v.envName) == 0 {
			continue
		}

		envval, ok := os.LookupEnv(v.envName)
		if !ok {
			continue
		}

		v.merged = true

		if err := v.value.Set(envval); err != nil {
			vs.Log(LevelError, v.name, "%s: %s", v.envName, err.Error())
		}
	}
}

func (vs *Variables) IsMerged(name string) bool {
	v := vs.findVariable(name)
	if v == nil {
		return false
	}

	return v.merged
}

// Validate checks all values and logs a message for each of them.
func (vs *Variables) Validate() {
	for _, v := range vs.vars {
		vs.Log(LevelInfo, v.name, "%s", "")

		if err := v.value.Validate(); err != nil {
			vs.Log(LevelError, v.name, "%s", err.Error())
		}

		if v.required && v.value.IsEmpty() {
			vs.Log(LevelError, v.name, "a value is required")
		}
	}
}

func (vs *Variables) ResetLogs() {
	vs.logs = nil
}

// Messages calls logger for each collected message in the order they have been collected.
func (vs *Variables) Messages(logger func(level string, v Variable, message string)) {
	for _, l := range vs.logs {
		logger(l.level, l.variable, l.text)
	}
}

func (vs *Variables) HasErrors() bool {
	for _, l := range vs.logs {
		if l.level == LevelError {
			return true
		}
	}

	return false
}

// Overrides returns the names of the values that have been replaced by their
// environment variable.
func (vs *Variables) Overrides() []string {
	overrides := []string{}

	for _, v := range vs.vars {
		if v.merged {
			overrides = append(overrides, v.name)
		}
	}

	return overrides
}

// Describe returns the descriptions of all values in the order of their registration.
func (vs *Variables) Describe() []Variable {
	list := make([]Variable, 0, len(vs.vars))

	for _, v := range vs.vars {
		list = append(list, v.describe())
	}

	return list
}

func (vs *Variables) findVariable(name string) *variable {
	return vs.byName[name]
}
