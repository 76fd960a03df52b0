// Package idgen formats and parses the human-readable sequential identifiers
// used across the system (MC0001, MC0001-S001, MC0001-S001-20260119-A007, ...).
//
// A code is a prefix followed by a zero-padded decimal counter. Parsing reads
// the trailing digit run, so it tolerates counters that outgrew their pad width.
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNoSuffix = errors.New("idgen: identifier has no numeric suffix")

// Scheme describes one identifier family.
type Scheme struct {
	// Prefix is everything before the counter, e.g. "MC" or "MC0001-S".
	Prefix string
	// Width is the minimum number of digits; shorter counters are zero-padded.
	Width int
}

var (
	Center  = Scheme{Prefix: "MC", Width: 4}
	Patient = Scheme{Prefix: "P", Width: 6}
)

// Session returns the scheme of sessions belonging to centerCode.
func Session(centerCode string) Scheme {
	return Scheme{Prefix: centerCode + "-S", Width: 3}
}

// Appointment returns the scheme of appointments of sessionCode on the civil
// day of date.
func Appointment(sessionCode string, date time.Time) Scheme {
	return Scheme{Prefix: sessionCode + "-" + date.Format("20060102") + "-A", Width: 3}
}

// Format renders n under the scheme.
func (s Scheme) Format(n int64) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Width, n)
}

// Suffix extracts the trailing counter of code.
func Suffix(code string) (int64, error) {
	i := len(code)
	for i > 0 && code[i-1] >= '0' && code[i-1] <= '9' {
		i--
	}
	if i == len(code) {
		return 0, fmt.Errorf("%w: %q", ErrNoSuffix, code)
	}
	return strconv.ParseInt(code[i:], 10, 64)
}

// Prescription renders the n-th prescription number of an appointment. The
// counter is not padded.
func Prescription(appointmentCode string, n int) string {
	return appointmentCode + "-P" + strconv.Itoa(n)
}

// Valid reports whether code belongs to the scheme.
func (s Scheme) Valid(code string) bool {
	if !strings.HasPrefix(code, s.Prefix) {
		return false
	}
	rest := code[len(s.Prefix):]
	if len(rest) < s.Width {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
