package memory

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeLimit struct {
	current int64
	set     []int64
}

func (f *fakeLimit) SetMemoryLimit(v int64) int64 {
	prev := f.current
	if v >= 0 {
		f.set = append(f.set, v)
		f.current = v
	}
	return prev
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		current int64
		want    Limit
		wantSet []int64
	}{
		{
			name:    "nothing set",
			env:     map[string]string{},
			current: math.MaxInt64,
			want:    Limit{Source: "none"},
		},
		{
			name:    "GOMEMLIMIT wins",
			env:     map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "1073741824"},
			current: 512 << 20,
			want:    Limit{Source: "GOMEMLIMIT", GoMemLimit: 512 << 20},
		},
		{
			name:    "default ratio",
			env:     map[string]string{"MEMORY_LIMIT": "1000"},
			current: math.MaxInt64,
			want:    Limit{Source: "MEMORY_LIMIT", ContainerLimit: 1000, GoMemLimit: 850, Ratio: 0.85},
			wantSet: []int64{850},
		},
		{
			name:    "custom ratio",
			env:     map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "0.5"},
			current: math.MaxInt64,
			want:    Limit{Source: "MEMORY_LIMIT", ContainerLimit: 1000, GoMemLimit: 500, Ratio: 0.5},
			wantSet: []int64{500},
		},
		{
			name:    "ratio out of range falls back",
			env:     map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "1.5"},
			current: math.MaxInt64,
			want:    Limit{Source: "MEMORY_LIMIT", ContainerLimit: 1000, GoMemLimit: 850, Ratio: 0.85},
			wantSet: []int64{850},
		},
		{
			name:    "unparsable ratio falls back",
			env:     map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "most"},
			current: math.MaxInt64,
			want:    Limit{Source: "MEMORY_LIMIT", ContainerLimit: 1000, GoMemLimit: 850, Ratio: 0.85},
			wantSet: []int64{850},
		},
		{
			name:    "invalid limit",
			env:     map[string]string{"MEMORY_LIMIT": "512Mi"},
			current: math.MaxInt64,
			want:    Limit{Source: "none"},
		},
		{
			name:    "negative limit",
			env:     map[string]string{"MEMORY_LIMIT": "-1"},
			current: math.MaxInt64,
			want:    Limit{Source: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeLimit{current: tt.current}
			got := configure(envFrom(tt.env), f.SetMemoryLimit)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("configure() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSet, f.set); diff != "" {
				t.Errorf("SetMemoryLimit calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLimitConfigured(t *testing.T) {
	if (Limit{Source: "none"}).Configured() {
		t.Error("Configured() = true for no limit")
	}
	if !(Limit{Source: "MEMORY_LIMIT", GoMemLimit: 1}).Configured() {
		t.Error("Configured() = false for a set limit")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{512 << 20, "512.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
