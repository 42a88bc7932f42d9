package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireRunsHandlersInRegistrationOrder(t *testing.T) {
	n := New[string]()
	var got []string
	n.On("change", func(p string) { got = append(got, "first:"+p) })
	n.On("change", func(p string) { got = append(got, "second:"+p) })
	n.On("other", func(p string) { got = append(got, "other:"+p) })

	n.Fire("change", "x")
	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestFirePassesSamePayloadReference(t *testing.T) {
	n := New[map[string]any]()
	payload := map[string]any{}
	var seen []map[string]any
	for i := 0; i < 3; i++ {
		n.On("change", func(p map[string]any) { seen = append(seen, p) })
	}
	n.Fire("change", payload)

	require.Len(t, seen, 3)
	payload["k"] = "v"
	for _, p := range seen {
		assert.Equal(t, "v", p["k"])
	}
}

func TestFireWithoutHandlers(t *testing.T) {
	n := New[int]()
	assert.NotPanics(t, func() { n.Fire("change", 1) })
}

func TestOnIgnoresNilHandler(t *testing.T) {
	n := New[int]()
	n.On("change", nil)
	ran := false
	n.On("change", func(int) { ran = true })
	assert.NotPanics(t, func() { n.Fire("change", 1) })
	assert.True(t, ran)
}

func TestHandlerPanicPropagates(t *testing.T) {
	n := New[int]()
	ran := false
	n.On("change", func(int) { panic("boom") })
	n.On("change", func(int) { ran = true })

	assert.PanicsWithValue(t, "boom", func() { n.Fire("change", 1) })
	assert.False(t, ran, "handlers after a panicking one do not run")
}
