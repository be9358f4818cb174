package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/soapscribe/soapscribe/internal/jobs"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Note produced
	ExitJobFailed = 1 // The recording was processed but the job failed
	ExitError     = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var jobFailedErr *jobs.JobFailedError
		if errors.As(err, &jobFailedErr) {
			os.Exit(ExitJobFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
