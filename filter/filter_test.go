package filter_test

import (
	"github.com/alexandre-normand/welcomebot/filter"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestIsViolating(t *testing.T) {
	f := filter.New([]string{"hmm", "no", "val"})

	testCases := []struct {
		text      string
		violating bool
	}{
		{"", false},
		{"hello there", false},
		{"hmm", true},
		{"HMM?!", true},
		{"n.o", true},
		{"N-O!", true},
		{"(v)a,l", true},
		{"I know", true},
		{"yes", false},
		{"h m m", false},
		{"va l", false},
		{"¿hmm¡", true},
		{"ñope", false},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equalf(t, tc.violating, f.IsViolating(tc.text), "unexpected classification for [%s]", tc.text)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", filter.Normalize("Hello, World!"))
	assert.Equal(t, "dont", filter.Normalize("don't"))
	assert.Equal(t, "", filter.Normalize("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"))
	assert.Equal(t, "été", filter.Normalize("Été."))
}

func TestDenylistIsNormalized(t *testing.T) {
	f := filter.New([]string{"B.A.D", "", "!!!", "Worse"})

	assert.Equal(t, []string{"bad", "worse"}, f.Words())
	assert.True(t, f.IsViolating("this is b-a-d"))
	assert.True(t, f.IsViolating("WORSE"))
	assert.False(t, f.IsViolating("fine"))
}

func TestEmptyDenylistNeverViolates(t *testing.T) {
	f := filter.New(nil)

	assert.False(t, f.IsViolating("anything at all"))
}
