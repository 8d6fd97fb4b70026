package value

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var portRegexp = regexp.MustCompile("^[0-9]+$")

// optional listen address

type Address string

func NewAddress(p *string, val string) *Address {
	*p = val

	return (*Address)(p)
}

func (s *Address) Set(val string) error {
	if len(val) == 0 {
		*s = Address(val)
		return nil
	}

	// Check if the new value is only a port number
	if portRegexp.MatchString(val) {
		val = ":" + val
	}

	*s = Address(val)
	return nil
}

func (s *Address) String() string {
	return string(*s)
}

func (s *Address) Validate() error {
	if len(string(*s)) == 0 {
		return nil
	}

	_, port, err := net.SplitHostPort(string(*s))
	if err != nil {
		return err
	}

	if !portRegexp.MatchString(port) {
		return fmt.Errorf("the port must be numerical")
	}

	return nil
}

func (s *Address) IsEmpty() bool {
	return len(string(*s)) == 0
}

// origin of a HTTP host, e.g. http://192.168.1.2:5050

type Origin string

func NewOrigin(p *string, val string) *Origin {
	*p = val

	return (*Origin)(p)
}

func (u *Origin) Set(val string) error {
	*u = Origin(strings.TrimSuffix(strings.TrimSpace(val), "/"))
	return nil
}

func (u *Origin) String() string {
	return string(*u)
}

func (u *Origin) Validate() error {
	val := string(*u)

	if len(val) == 0 {
		return nil
	}

	return ValidateOrigin(val)
}

func (u *Origin) IsEmpty() bool {
	return len(string(*u)) == 0
}

// ValidateOrigin checks that val is a http or https URL with a host and nothing
// but an optional trailing slash as path.
func ValidateOrigin(val string) error {
	u, err := url.Parse(val)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL", val)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", val)
	}

	if len(u.Host) == 0 {
		return fmt.Errorf("%s has no host", val)
	}

	if len(u.Path) != 0 && u.Path != "/" {
		return fmt.Errorf("%s must not have a path", val)
	}

	return nil
}
