package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperation_Constants(t *testing.T) {
	assert.NotEqual(t, OpCreate, OpModify)
	assert.NotEqual(t, OpCreate, OpDelete)
	assert.NotEqual(t, OpModify, OpDelete)
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "CREATE"},
		{"modify", OpModify, "MODIFY"},
		{"delete", OpDelete, "DELETE"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestFileEvent_Fields(t *testing.T) {
	now := time.Now()
	event := FileEvent{
		Path:      "pages/main.md",
		Operation: OpModify,
		Timestamp: now,
	}

	assert.Equal(t, "pages/main.md", event.Path)
	assert.Equal(t, OpModify, event.Operation)
	assert.Equal(t, now, event.Timestamp)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 500*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 256, opts.EventBufferSize)
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: DefaultOptions(),
		},
		{
			name: "partial options keep custom values",
			opts: Options{DebounceWindow: 100 * time.Millisecond},
			want: Options{DebounceWindow: 100 * time.Millisecond, EventBufferSize: 256},
		},
		{
			name: "all custom values preserved",
			opts: Options{DebounceWindow: 100 * time.Millisecond, EventBufferSize: 500},
			want: Options{DebounceWindow: 100 * time.Millisecond, EventBufferSize: 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.WithDefaults()
			assert.Equal(t, tt.want.DebounceWindow, got.DebounceWindow)
			assert.Equal(t, tt.want.EventBufferSize, got.EventBufferSize)
		})
	}
}
