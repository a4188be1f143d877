package main

import (
	"errors"
	"strconv"
	"strings"
)

// headerList is a flag.Value implementation that accumulates repeated -H / -header entries.
type headerList []string

// Set appends the header value to the list.
func (h *headerList) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return errors.New("header must not be empty")
	}
	if !strings.Contains(trimmed, ":") {
		return errors.New("header must be in 'Key: Value' format")
	}
	*h = append(*h, trimmed)
	return nil
}

// String returns the string representation of the flag value.
func (h *headerList) String() string {
	return strings.Join(*h, ", ")
}

// Values returns the list of headers.
func (h *headerList) Values() []string {
	return append([]string(nil), *h...)
}

// trackedIntFlag is a flag.Value implementation that tracks whether a flag was set.
type trackedIntFlag struct {
	value int
	set   bool
}

// Set converts the string value to an integer and stores it.
func (f *trackedIntFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.value = v
	f.set = true
	return nil
}

// String returns the string representation of the flag value.
func (f *trackedIntFlag) String() string {
	return strconv.Itoa(f.value)
}

// Value returns the integer value of the flag.
func (f *trackedIntFlag) Value() int {
	return f.value
}

// WasSet returns true if the flag was set.
func (f *trackedIntFlag) WasSet() bool {
	return f.set
}

// newTrackedIntFlag creates a new trackedIntFlag with the given default value.
func newTrackedIntFlag(defaultValue int) trackedIntFlag {
	return trackedIntFlag{value: defaultValue}
}

// trackedFloatFlag is a flag.Value implementation that tracks whether a float flag was set.
type trackedFloatFlag struct {
	value float64
	set   bool
}

// Set converts the string value to a float and stores it.
func (f *trackedFloatFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = v
	f.set = true
	return nil
}

// String returns the string representation of the flag value.
func (f *trackedFloatFlag) String() string {
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

// Value returns the float value of the flag.
func (f *trackedFloatFlag) Value() float64 {
	return f.value
}

// WasSet returns true if the flag was set.
func (f *trackedFloatFlag) WasSet() bool {
	return f.set
}

// newTrackedFloatFlag creates a new trackedFloatFlag with the given default value.
func newTrackedFloatFlag(defaultValue float64) trackedFloatFlag {
	return trackedFloatFlag{value: defaultValue}
}

// verbosityCounter is a flag.Value counting -v occurrences. It also accepts an explicit
// level in the -v=N form produced by preprocessVerbosityArgs.
type verbosityCounter struct {
	count int
}

// newVerbosityCounter creates a verbosityCounter starting at 0.
func newVerbosityCounter() *verbosityCounter {
	return &verbosityCounter{}
}

// Set increments the count for a bare -v, or stores an explicit level.
func (v *verbosityCounter) Set(s string) error {
	if s == "" || s == "true" {
		v.count++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("verbosity must be a non-negative integer")
	}
	if n < 0 {
		return errors.New("verbosity must be a non-negative integer")
	}
	v.count = n
	return nil
}

// String returns the string representation of the flag value.
func (v *verbosityCounter) String() string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(v.count)
}

// IsBoolFlag lets -v be given without a value.
func (*verbosityCounter) IsBoolFlag() bool {
	return true
}

// Value returns the verbosity level.
func (v *verbosityCounter) Value() int {
	return v.count
}
