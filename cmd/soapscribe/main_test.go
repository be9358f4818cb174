package main

import (
	"errors"
	"testing"

	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/stretchr/testify/assert"
)

func TestErrorTypeDetection(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantFound bool
	}{
		{
			name:      "JobFailedError",
			err:       &jobs.JobFailedError{ID: "1", Message: "boom"},
			wantFound: true,
		},
		{
			name:      "regular error",
			err:       errors.New("config error"),
			wantFound: false,
		},
		{
			name:      "wrapped JobFailedError",
			err:       errors.Join(&jobs.JobFailedError{ID: "1", Message: "boom"}, errors.New("additional context")),
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var jobFailedErr *jobs.JobFailedError
			assert.Equal(t, tt.wantFound, errors.As(tt.err, &jobFailedErr))
		})
	}
}
