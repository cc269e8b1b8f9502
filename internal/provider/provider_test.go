package provider

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	fielderr "github.com/hanpama/hotgraph/internal/fielderr"
)

const weatherManifest = `
fieldType: weather
sdl: |
  type Weather { city: String!, celsius: Float }
  extend type Query { weather: [Weather!]!, forecast: [Weather] }
errorCodes: [WEATHER_UNAVAILABLE]
values:
  Query.weather:
    - {city: Seoul, celsius: 21.5}
failures:
  Query.forecast:
    - {path: [forecast, 0], message: no data, code: WEATHER_UNAVAILABLE}
`

func TestParseManifest(t *testing.T) {
	p, err := ParseManifest([]byte(weatherManifest), "weather.yaml")
	require.NoError(t, err)
	require.Equal(t, "weather", p.FieldType())
	require.Equal(t, []string{"WEATHER_UNAVAILABLE"}, p.ErrorCodes())
	require.Len(t, p.Resolvers(), 2)

	v, err := p.Resolvers()["Query.weather"](context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"city": "Seoul", "celsius": 21.5}}, v)

	_, err = p.Resolvers()["Query.forecast"](context.Background(), nil, nil)
	var fe *fielderr.FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, []fielderr.Message{{Path: []any{"forecast", 0}, Text: "no data", Code: "WEATHER_UNAVAILABLE"}}, fe.Messages)
}

func TestParseManifest_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing field type": "sdl: 'extend type Query { a: Int }'",
		"missing sdl":        "fieldType: a",
		"bad key":            "fieldType: a\nsdl: 'extend type Query { a: Int }'\nvalues: {a: 1}",
		"not yaml":           "fieldType: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(src), "x.yaml")
			require.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.yaml", "fieldType: b\nsdl: 'extend type Query { b: Int }'")
	write(t, dir, "a.yml", "fieldType: a\nsdl: 'extend type Query { a: Int }'")
	write(t, dir, "notes.txt", "ignored")
	write(t, dir, ".hidden.yaml", "ignored")

	ps, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "a", ps[0].FieldType())
	require.Equal(t, "b", ps[1].FieldType())
}

type recordingBinder struct {
	mu     sync.Mutex
	events []string
	bound  map[string]FieldProvider
}

func newRecordingBinder() *recordingBinder {
	return &recordingBinder{bound: map[string]FieldProvider{}}
}

func (b *recordingBinder) Bind(p FieldProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, "bind "+p.FieldType())
	b.bound[p.FieldType()] = p
}

func (b *recordingBinder) Unbind(p FieldProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, "unbind "+p.FieldType())
	delete(b.bound, p.FieldType())
}

func (b *recordingBinder) has(fieldType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bound[fieldType]
	return ok
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.yaml", "fieldType: a\nsdl: 'extend type Query { a: Int }'")

	binder := newRecordingBinder()
	w, err := NewWatcher(dir, binder, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.True(t, binder.has("a"))

	write(t, dir, "b.yaml", "fieldType: b\nsdl: 'extend type Query { b: Int }'")
	require.Eventually(t, func() bool { return binder.has("b") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.yaml")))
	require.Eventually(t, func() bool { return !binder.has("a") }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return w.Bound() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_InvalidManifestKeepsOld(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.yaml", "fieldType: a\nsdl: 'extend type Query { a: Int }'")

	binder := newRecordingBinder()
	w, err := NewWatcher(dir, binder, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	write(t, dir, "a.yaml", "fieldType: [")
	time.Sleep(100 * time.Millisecond)

	require.True(t, binder.has("a"))
	require.Equal(t, 1, w.Bound())
}

func TestWatcher_ConcurrentStop(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, newRecordingBinder(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
	w.Stop()
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
