package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sacnlogger/configsync/log"
)

// int64

type Int64 int64

func NewInt64(p *int64, val int64) *Int64 {
	*p = val

	return (*Int64)(p)
}

func (u *Int64) Set(val string) error {
	v, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return err
	}
	*u = Int64(v)
	return nil
}

func (u *Int64) String() string {
	return strconv.FormatInt(int64(*u), 10)
}

func (u *Int64) Validate() error {
	return nil
}

func (u *Int64) IsEmpty() bool {
	return int64(*u) == 0
}

// positive int

type PositiveInt int

func NewPositiveInt(p *int, val int) *PositiveInt {
	*p = val

	return (*PositiveInt)(p)
}

func (i *PositiveInt) Set(val string) error {
	v, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return err
	}
	*i = PositiveInt(v)
	return nil
}

func (i *PositiveInt) String() string {
	return strconv.Itoa(int(*i))
}

func (i *PositiveInt) Validate() error {
	if int(*i) <= 0 {
		return fmt.Errorf("%d is not a positive number", int(*i))
	}

	return nil
}

func (i *PositiveInt) IsEmpty() bool {
	return int(*i) == 0
}

// log level

type LogLevel string

func NewLogLevel(p *string, val string) *LogLevel {
	*p = val

	return (*LogLevel)(p)
}

func (l *LogLevel) Set(val string) error {
	*l = LogLevel(strings.ToLower(strings.TrimSpace(val)))
	return nil
}

func (l *LogLevel) String() string {
	return string(*l)
}

func (l *LogLevel) Validate() error {
	_, err := log.ParseLevel(string(*l))

	return err
}

func (l *LogLevel) IsEmpty() bool {
	return len(string(*l)) == 0
}
