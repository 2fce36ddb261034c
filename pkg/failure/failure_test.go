package failure

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(MissingBuildFile, "There is no pom.xml in directory /co/lbc", nil),
			want: "There is no pom.xml in directory /co/lbc",
		},
		{
			name: "with cause",
			err:  New(ServiceUnavailable, "Web service not found", io.ErrUnexpectedEOF),
			want: "Web service not found (unexpected EOF)",
		},
		{
			name: "formatted",
			err:  Newf(EmptyProjectList, "no projects to build (%d paths)", 0),
			want: "no projects to build (0 paths)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindThroughWrapping(t *testing.T) {
	base := New(UnknownScenario, "Could not resolve dependencies", nil)
	wrapped := fmt.Errorf("aggregating scope: %w", base)

	if got := KindOf(wrapped); got != UnknownScenario {
		t.Errorf("KindOf = %q, want %q", got, UnknownScenario)
	}
	if !Is(wrapped, UnknownScenario) {
		t.Error("Is(wrapped, UnknownScenario) = false")
	}
	if Is(wrapped, UnknownProject) {
		t.Error("Is(wrapped, UnknownProject) = true")
	}
	if Is(nil, UnknownScenario) {
		t.Error("Is(nil, ...) = true")
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestUnwrap(t *testing.T) {
	err := New(MalformedDescriptor, "bad pom", io.EOF)
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is(err, io.EOF) = false, want true")
	}
}

func TestPathAndHints(t *testing.T) {
	err := Newf(NoCheckoutRoot, "no checkout").
		WithPath("/tmp/x").
		WithHints("first", "second")

	if err.Path != "/tmp/x" {
		t.Errorf("Path = %q", err.Path)
	}
	hints := HintsOf(fmt.Errorf("outer: %w", err))
	if len(hints) != 2 || hints[0] != "first" || hints[1] != "second" {
		t.Errorf("HintsOf = %v", hints)
	}
	if HintsOf(errors.New("plain")) != nil {
		t.Error("HintsOf(plain) should be nil")
	}
}
