package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedThing struct{ Name string }

type idOnly struct{ ID int }

type idMethod struct{}

func (idMethod) Id() string { return "m-42" }

type explodingStringer struct{}

func (explodingStringer) String() string { panic("boom") }

type zone string

func (z zone) String() string { return "zone/" + string(z) }

func TestSanitizeExtra(t *testing.T) {
	count := 3
	var nilPtr *namedThing

	extra := SanitizeExtra(map[string]any{
		"str":      "abc",
		"num":      7,
		"flag":     true,
		"none":     nil,
		"ptr":      &count,
		"nil_ptr":  nilPtr,
		"list":     []string{"a", "b"},
		"map":      map[string]int{"x": 1},
		"named":    namedThing{Name: "disk-0"},
		"named_p":  &namedThing{Name: "disk-1"},
		"id":       idOnly{ID: 9},
		"id_m":     idMethod{},
		"empty":    namedThing{},
		"stringer": zone("us-east1"),
		"bad":      explodingStringer{},
		"fn":       func() {},
	})

	assert.Equal(t, "abc", extra["str"])
	assert.Equal(t, 7, extra["num"])
	assert.Equal(t, true, extra["flag"])
	assert.Nil(t, extra["none"])
	assert.Contains(t, extra, "none")
	assert.Equal(t, 3, extra["ptr"])
	assert.Contains(t, extra, "nil_ptr")
	assert.Nil(t, extra["nil_ptr"])
	assert.Equal(t, `["a","b"]`, extra["list"])
	assert.Equal(t, `{"x":1}`, extra["map"])
	assert.Equal(t, "disk-0", extra["named"])
	assert.Equal(t, "disk-1", extra["named_p"])
	assert.Equal(t, int64(9), extra["id"])
	assert.Equal(t, "m-42", extra["id_m"])
	assert.Equal(t, "{}", extra["empty"])
	assert.Equal(t, "zone/us-east1", extra["stringer"])

	assert.NotContains(t, extra, "bad")
	assert.NotContains(t, extra, "fn")
}

func TestJoinAddresses(t *testing.T) {
	assert.Equal(t, []string{"34.1.1.1", "10.0.0.2"}, JoinAddresses([]string{"", "34.1.1.1"}, []string{" 10.0.0.2 "}))
	assert.Equal(t, []string{}, JoinAddresses(nil, nil))
}
