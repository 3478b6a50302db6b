package recurse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeUnit(t *testing.T) {
	cases := map[string]TimeUnit{
		"secs":    Seconds,
		"seconds": Seconds,
		"mins":    Minutes,
		"Minutes": Minutes,
		"hours":   Hours,
		" days ":  Days,
		"weeks":   Seconds,
		"":        Seconds,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTimeUnit(in), in)
	}
}

func TestTimeUnitSeconds(t *testing.T) {
	assert.Equal(t, 1.0, Seconds.Seconds())
	assert.Equal(t, 60.0, Minutes.Seconds())
	assert.Equal(t, 3600.0, Hours.Seconds())
	assert.Equal(t, 86400.0, Days.Seconds())
	assert.Equal(t, 1.0, TimeUnit(42).Seconds())
	assert.Equal(t, "hours", ParseTimeUnit(Hours.String()).String())
}
