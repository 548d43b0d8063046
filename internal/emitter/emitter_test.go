package emitter

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitExactMatch(t *testing.T) {
	e := New(DefaultOptions())

	var got [][]any
	e.On("greet", func(args ...any) { got = append(got, args) })

	assert.True(t, e.Emit("greet", map[string]any{"name": "a"}, []any{1, 2, 3}))
	assert.False(t, e.Emit("greet.other"))

	want := [][]any{{map[string]any{"name": "a"}, []any{1, 2, 3}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestWildcardsDisabledTreatStarLiterally(t *testing.T) {
	e := New(DefaultOptions())
	var n int
	e.On("*.one", func(...any) { n++ })

	e.Emit("ping.one")
	assert.Equal(t, 0, n)
	e.Emit("*.one")
	assert.Equal(t, 1, n)
}

func TestMatchSegments(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"ping.one", "ping.one", true},
		{"*.one", "ping.one", true},
		{"*.one", "ping.two", false},
		{"*.one", "a.b.one", false},
		{"ping.*", "ping.me", true},
		{"ping.me", "ping.*", true},
		{"*.pong", "me.pong", true},
		{"**", "a.b.c", true},
		{"a.**", "a", true},
		{"a.**", "a.b.c", true},
		{"a.**.c", "a.c", true},
		{"a.**.c", "a.x.y.c", true},
		{"a.**.c", "a.x.y.d", false},
		{"a.b", "a", false},
		{"a", "a.b", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.topic, func(t *testing.T) {
			e := New(Options{Wildcard: true})
			var hit bool
			e.On(tt.pattern, func(...any) { hit = true })
			e.Emit(tt.topic)
			assert.Equal(t, tt.want, hit)
		})
	}
}

func TestCustomDelimiter(t *testing.T) {
	e := New(Options{Wildcard: true, Delimiter: "/"})
	var hit bool
	e.On("jobs/*", func(...any) { hit = true })

	e.Emit("jobs.done")
	assert.False(t, hit)
	e.Emit("jobs/done")
	assert.True(t, hit)
	assert.Equal(t, "/", e.Options().Delimiter)
}

func TestOnceAndMany(t *testing.T) {
	e := New(DefaultOptions())

	var once, many int
	e.Once("tick", func(...any) { once++ })
	e.Many("tick", 2, func(...any) { many++ })

	for range 4 {
		e.Emit("tick")
	}
	assert.Equal(t, 1, once)
	assert.Equal(t, 2, many)
	assert.Equal(t, 0, e.ListenerCount("tick"))
}

func TestOnceFiresExactlyOnceUnderConcurrency(t *testing.T) {
	e := New(DefaultOptions())
	var calls atomic.Int32
	e.Once("race", func(...any) { calls.Add(1) })

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Emit("race")
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestOffAndOffAll(t *testing.T) {
	e := New(DefaultOptions())

	id := e.On("a", func(...any) {})
	e.On("a", func(...any) {})
	e.On("b", func(...any) {})

	assert.True(t, e.Off(id))
	assert.False(t, e.Off(id), "second removal is a no-op")
	assert.Equal(t, 1, e.ListenerCount("a"))

	assert.Equal(t, 1, e.OffAll("a"))
	assert.Equal(t, 1, e.OffAll(""))
	assert.Empty(t, e.Patterns())
}

func TestOffAllExceptKeepsOne(t *testing.T) {
	e := New(DefaultOptions())

	keep := e.On("error", func(...any) {})
	e.On("error", func(...any) {})
	e.On("b", func(...any) {})

	assert.Equal(t, 1, e.OffAllExcept("error", keep))
	assert.Equal(t, 1, e.OffAllExcept("", keep))
	assert.Equal(t, map[string]int{"error": 1}, e.Patterns())
	assert.True(t, e.Off(keep))
}

func TestListenerMayRemoveItselfWhileEmitting(t *testing.T) {
	e := New(DefaultOptions())
	var id ListenerID
	var n int
	id = e.On("self", func(...any) {
		n++
		e.Off(id)
	})

	e.Emit("self")
	e.Emit("self")
	assert.Equal(t, 1, n)
}

func TestOnAnySeesEveryTopic(t *testing.T) {
	e := New(Options{Wildcard: true})
	var topics []string
	id := e.OnAny(func(topic string, _ ...any) { topics = append(topics, topic) })

	assert.False(t, e.Emit("x.y"), "catch-all listeners do not count as handled")
	e.Emit("z")
	assert.Equal(t, []string{"x.y", "z"}, topics)

	require.True(t, e.Off(id))
	e.Emit("w")
	assert.Len(t, topics, 2)
}

func TestUnhandledErrorStrict(t *testing.T) {
	e := New(Options{StrictErrors: true})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		ue, ok := r.(*UnhandledError)
		require.True(t, ok)
		assert.Contains(t, ue.Error(), "boom")
	}()
	e.Emit(ErrorTopic, "boom")
	t.Fatal("expected panic")
}

func TestUnhandledErrorLenient(t *testing.T) {
	e := New(DefaultOptions())
	assert.NotPanics(t, func() {
		assert.False(t, e.Emit(ErrorTopic, "boom"))
	})
}

func TestPatternsAndMaxListenersWarning(t *testing.T) {
	e := New(Options{MaxListeners: 1})
	e.On("a", func(...any) {})
	e.On("a", func(...any) {})
	e.On("b", func(...any) {})

	assert.Equal(t, map[string]int{"a": 2, "b": 1}, e.Patterns())
	assert.Equal(t, []string{"a", "b"}, e.SortedPatterns())
	assert.True(t, e.warned["a"])
	assert.False(t, e.warned["b"])
}

func TestUnhandledErrorMessage(t *testing.T) {
	assert.Equal(t, "emitter: unhandled error event", (&UnhandledError{}).Error())
}
