package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helperRunner re-executes the test binary as a stand-in downstream program.
func helperRunner(args ...string) *Runner {
	cmd := append([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, args...)
	r := NewRunner(cmd)
	r.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return r
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "echo":
		fmt.Println("processed")
		os.Exit(0)
	case "exit":
		code, _ := strconv.Atoi(args[2])
		fmt.Fprintln(os.Stderr, "processing failed")
		os.Exit(code)
	}
	os.Exit(2)
}

func TestRunSuccess(t *testing.T) {
	r := helperRunner("echo")
	stdout := &bytes.Buffer{}
	r.Stdout = stdout

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "processed\n", stdout.String())
}

func TestRunNonZeroExit(t *testing.T) {
	r := helperRunner("exit", "3")
	stderr := &bytes.Buffer{}
	r.Stderr = stderr

	err := r.Run(context.Background())
	require.Error(t, err)

	code, ok := ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 3, code)
	assert.Contains(t, err.Error(), "exited with status 3")
	assert.Contains(t, stderr.String(), "processing failed")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner([]string{"surveybuild-definitely-missing-binary", "data/process_survey.js"})

	err := r.Run(context.Background())
	require.Error(t, err)
	_, ok := ExitCode(err)
	assert.False(t, ok, "a command that never started has no exit status")
}

func TestRunNoCommand(t *testing.T) {
	err := NewRunner(nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestNewRunnerCopiesCommand(t *testing.T) {
	cmd := []string{"node", "data/process_survey.js"}
	r := NewRunner(cmd)
	cmd[0] = "deno"
	assert.Equal(t, "node data/process_survey.js", r.String())
}
