package services

import (
	"errors"
	"testing"
)

func TestWrapTagsAndComposesDetail(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrTranscode, "transcode", "segment 3", "ffmpeg failed", cause)

	if !errors.Is(err, ErrTranscode) {
		t.Fatalf("marker not preserved: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved: %v", err)
	}
	want := "transcode failure: transcode: segment 3: ffmpeg failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("message %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaults(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker should classify as transient: %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("message %q", err.Error())
	}
}

func TestIsPlanFatal(t *testing.T) {
	tests := []struct {
		name   string
		marker error
		want   bool
	}{
		{"incomplete inputs", ErrIncompleteInputs, true},
		{"sequence violation", ErrSequenceViolation, true},
		{"repair exhausted", ErrRepairExhausted, true},
		{"concat", ErrConcat, true},
		{"transcode", ErrTranscode, false},
		{"probe", ErrProbe, false},
		{"transient", ErrTransient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.marker, "stage", "op", "msg", nil)
			if got := IsPlanFatal(err); got != tt.want {
				t.Fatalf("IsPlanFatal = %v, want %v", got, tt.want)
			}
		})
	}
}
