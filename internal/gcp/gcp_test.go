package gcp

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("GCP_TEST_SET", "value")
	t.Setenv("GCP_TEST_EMPTY", "")

	if got := GetEnv("GCP_TEST_SET", "fallback"); got != "value" {
		t.Errorf("set: got %q", got)
	}
	// An explicitly empty variable is still set.
	if got := GetEnv("GCP_TEST_EMPTY", "fallback"); got != "" {
		t.Errorf("empty: got %q", got)
	}
	if got := GetEnv("GCP_TEST_UNSET_VARIABLE", "fallback"); got != "fallback" {
		t.Errorf("unset: got %q", got)
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"412", &googleapi.Error{Code: 412}, true},
		{"wrapped 412", fmt.Errorf("write: %w", &googleapi.Error{Code: 412}), true},
		{"404", &googleapi.Error{Code: 404}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPreconditionFailed(tt.err); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResourceNames(t *testing.T) {
	if got := ObjectURI("bucket", "doc/prediction.json"); got != "gs://bucket/doc/prediction.json" {
		t.Errorf("ObjectURI: got %q", got)
	}
	want := "projects/p/locations/us-central1/workflows/wf"
	if got := WorkflowParent("p", "us-central1", "wf"); got != want {
		t.Errorf("WorkflowParent: got %q, want %q", got, want)
	}
}
