package flaring

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Volume is an exact decimal quantity of gas in MCF. The zero value is 0.
type Volume struct {
	value apd.Decimal
}

// volumeContext has no precision limit, so sums are never rounded. Inexact
// and Rounded are trapped so any lost digit surfaces as an error.
var volumeContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(0)
	c.Traps |= apd.Inexact | apd.Rounded
	return c
}()

// ParseVolume parses a decimal string. Thousands separators are accepted.
func ParseVolume(s string) (Volume, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	var d apd.Decimal
	if _, _, err := volumeContext.SetString(&d, s); err != nil {
		return Volume{}, fmt.Errorf("invalid volume: %w", err)
	}
	if d.Form != apd.Finite {
		return Volume{}, fmt.Errorf("invalid volume: %q is not finite", s)
	}
	return Volume{value: d}, nil
}

// MustVolume is ParseVolume for literals known to be valid.
func MustVolume(s string) Volume {
	v, err := ParseVolume(s)
	if err != nil {
		panic(err)
	}
	return v
}

// VolumeFromInt64 returns i as a Volume.
func VolumeFromInt64(i int64) Volume {
	var d apd.Decimal
	d.SetInt64(i)
	return Volume{value: d}
}

// Add returns the exact sum of v and other. It panics if the sum leaves the
// exponent range of the context, which parsed volumes cannot reach.
func (v Volume) Add(other Volume) Volume {
	var result apd.Decimal
	if _, err := volumeContext.Add(&result, &v.value, &other.value); err != nil {
		panic(fmt.Sprintf("volume sum %s + %s: %v", v, other, err))
	}
	return Volume{value: result}
}

func (v Volume) Cmp(other Volume) int {
	return v.value.Cmp(&other.value)
}

func (v Volume) IsZero() bool {
	return v.value.IsZero()
}

func (v Volume) String() string {
	return v.value.Text('f')
}

// MarshalJSON renders the volume as a JSON number.
func (v Volume) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}
