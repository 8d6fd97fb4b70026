// Package value provides the typed configuration values. Each value is bound to a
// field of the configuration data and can be set from its string representation,
// e.g. from an environment variable.
package value

type Value interface {
	// String returns the string representation of the current value.
	String() string

	// Set parses the string representation and stores the result in the bound field.
	// The field is unchanged if an error is returned.
	Set(string) error

	// Validate returns an error describing what is wrong with the current value.
	Validate() error

	// IsEmpty returns whether the current value is the empty value of its type.
	IsEmpty() bool
}
