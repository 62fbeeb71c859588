package toast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Show(title string, message string, seconds int) error {
	args := m.Called(title, message, seconds)
	return args.Error(0)
}

func TestNotify_DisabledByDefault(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	n := NewWithProviders(Config{}, primary)

	n.Notify("hello")
	primary.AssertNotCalled(t, "Show", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_PrimarySuccessShortCircuits(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}
	primary.On("Show", Title, "hello", 7).Return(nil)

	n := NewWithProviders(Config{Enabled: "1", Duration: "7"}, primary, fallback)
	n.Notify("hello")

	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Show", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_FallsBackOnFailure(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}
	primary.On("Show", Title, "hello", 0).Return(errors.New("no session bus"))
	fallback.On("Show", Title, "hello", 0).Return(nil)

	n := NewWithProviders(Config{Enabled: "1", Duration: "soon"}, primary, fallback)
	assert.NoError(t, n.show("hello"))

	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestNotify_AllFailuresAreSwallowed(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}
	primary.On("Show", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("a"))
	fallback.On("Show", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("b"))

	n := NewWithProviders(Config{Enabled: "1"}, primary, fallback)
	assert.ErrorIs(t, n.show("hello"), ErrAllProvidersFailed)
	assert.NotPanics(t, func() { n.Notify("hello") })
}

func TestLengthFor(t *testing.T) {
	assert.Equal(t, Short, LengthFor(-1))
	assert.Equal(t, Short, LengthFor(0))
	assert.Equal(t, Short, LengthFor(4))
	assert.Equal(t, Long, LengthFor(5))
	assert.Equal(t, Long, LengthFor(30))
	assert.Equal(t, "long", Long.String())
}

func TestParseEnabled(t *testing.T) {
	for _, raw := range []string{"1", "true", "TRUE", " t "} {
		assert.True(t, ParseEnabled(raw), raw)
	}
	for _, raw := range []string{"", "0", "false", "yes", "on", "2"} {
		assert.False(t, ParseEnabled(raw), raw)
	}
}

func TestNotify_UnparseableEnabledIsOff(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	n := NewWithProviders(Config{Enabled: "yes please"}, primary)

	assert.False(t, n.Enabled())
	n.Notify("hello")
	primary.AssertNotCalled(t, "Show", mock.Anything, mock.Anything, mock.Anything)
}

func TestDbusProvider_HungDaemonTimesOut(t *testing.T) {
	var got []interface{}
	p := &dbusProvider{
		appName: "vidinfo",
		timeout: 50 * time.Millisecond,
		notify: func(ctx context.Context, args ...interface{}) error {
			got = args
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)

			<-ctx.Done()
			return ctx.Err()
		},
	}

	start := time.Now()
	err := p.Show(Title, "hello", 30)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, got, 8)
	assert.Equal(t, "vidinfo", got[0])
	assert.Equal(t, Title, got[3])
	assert.Equal(t, "hello", got[4])
	assert.Equal(t, int32(25000), got[7])
}

func TestDbusProvider_TimeoutFallsBackToNextProvider(t *testing.T) {
	hung := &dbusProvider{
		timeout: 20 * time.Millisecond,
		notify: func(ctx context.Context, _ ...interface{}) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	fallback := &mockProvider{name: "fallback"}
	fallback.On("Show", Title, "hello", 0).Return(nil)

	n := NewWithProviders(Config{Enabled: "true"}, hung, fallback)
	assert.NoError(t, n.show("hello"))
	fallback.AssertExpectations(t)
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, 0, ParseSeconds(""))
	assert.Equal(t, 0, ParseSeconds("abc"))
	assert.Equal(t, 12, ParseSeconds(" 12 "))
	assert.Equal(t, -3, ParseSeconds("-3"))
}

func TestCommandProvider_ResolvesOnceAndDefaultsDuration(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake notify-send relies on a POSIX shell")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "args")
	bin := filepath.Join(dir, "notify-send")
	script := "#!/bin/sh\necho \"$@\" >> " + out + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	lookups := 0
	p := &commandProvider{
		appName: "vidinfo",
		goos:    "linux",
		lookPath: func(name string) (string, error) {
			lookups++
			assert.Equal(t, "notify-send", name)
			return bin, nil
		},
	}

	require.NoError(t, p.Show(Title, "first", 0))
	require.NoError(t, p.Show(Title, "second", 8))
	assert.Equal(t, 1, lookups)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Count(string(data), "\n") == 2
	}, 5*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-a vidinfo -t 5000 Video Info first")
	assert.Contains(t, string(data), "-a vidinfo -t 8000 Video Info second")
}

func TestCommandProvider_ResolutionFailureIsSticky(t *testing.T) {
	lookups := 0
	p := &commandProvider{
		goos: "linux",
		lookPath: func(string) (string, error) {
			lookups++
			return "", errors.New("not found")
		},
	}

	assert.Error(t, p.Show(Title, "a", 1))
	assert.Error(t, p.Show(Title, "b", 1))
	assert.Equal(t, 1, lookups)
}

func TestCommandProvider_UnsupportedPlatform(t *testing.T) {
	p := &commandProvider{goos: "plan9", lookPath: func(string) (string, error) { return "", nil }}
	assert.ErrorIs(t, p.Show(Title, "a", 1), ErrUnsupportedPlatform)
}

func TestOsascriptArgs_QuotesInput(t *testing.T) {
	args := osascriptArgs(`Video "Info"`, `[Clip] a\b`, 3)
	assert.Equal(t, []string{"-e", `display notification "[Clip] a\\b" with title "Video \"Info\""`}, args)
}
