package autohook_test

import (
	"testing"

	"github.com/hbomb79/vidinfo/internal/autohook"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	existing := map[string]bool{"/tmp/x.mp4": true, "/tmp/a.mp4": true, "/tmp/b.mp4": true}
	exists := func(p string) bool { return existing[p] }

	tests := []struct {
		summary string
		value   ui.Value
		path    string
		ok      bool
	}{
		{"nil", nil, "", false},
		{"existing string", ui.String("/tmp/x.mp4"), "/tmp/x.mp4", true},
		{"missing string", ui.String("/tmp/nope.mp4"), "", false},
		{"record name", ui.Record{"name": ui.String("/tmp/x.mp4")}, "/tmp/x.mp4", true},
		{"record path after missing name", ui.Record{"name": ui.String("/tmp/nope.mp4"), "path": ui.String("/tmp/a.mp4")}, "/tmp/a.mp4", true},
		{"record tempfile", ui.Record{"tempfile": ui.String("/tmp/b.mp4")}, "/tmp/b.mp4", true},
		{"record non-string key", ui.Record{"name": ui.Sequence{ui.String("/tmp/x.mp4")}}, "", false},
		{"sequence uses first only", ui.Paths("/tmp/a.mp4", "/tmp/b.mp4"), "/tmp/a.mp4", true},
		{"sequence first missing", ui.Paths("/tmp/nope.mp4", "/tmp/b.mp4"), "", false},
		{"nested sequence", ui.Sequence{ui.Sequence{ui.Record{"path": ui.String("/tmp/b.mp4")}}}, "/tmp/b.mp4", true},
		{"empty sequence", ui.Sequence{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			path, ok := autohook.ResolvePath(tt.value, exists)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.path, path)
		})
	}
}
