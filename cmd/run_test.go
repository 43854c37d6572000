package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sparkify/sparkdl/internal/iofiles"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetRunCmd_Exists verifies getRunCmd returns
// a valid command.
func TestGetRunCmd_Exists(t *testing.T) {
	cmd := getRunCmd()
	require.NotNil(t, cmd, "Run command should exist")
	assert.Equal(t, "run", cmd.Use,
		"Command name should be run")
	assert.Contains(t, cmd.Aliases, "etl")
}

// TestGetRunCmd_Flags verifies run flags and their short forms.
func TestGetRunCmd_Flags(t *testing.T) {
	cmd := getRunCmd()

	tests := []struct {
		name, short string
	}{
		{"song-data", "s"},
		{"log-data", "l"},
		{"output", "o"},
		{"format", "F"},
		{"malformed", "m"},
		{"jobs", "j"},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, tt.name)
		assert.Equal(t, tt.short, flag.Shorthand, tt.name)
	}
}

// TestGetRunCmd_HelpText verifies help text content.
func TestGetRunCmd_HelpText(t *testing.T) {
	cmd := getRunCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	helpText := buf.String()
	assert.Contains(t, helpText, "songplays_table")
	assert.Contains(t, helpText, "--malformed")
	assert.Contains(t, helpText, "sparkdl run -o output -F sqlite",
		"Help should include examples")
}

// TestRunFlags verifies that only explicitly set flags become options.
func TestRunFlags(t *testing.T) {
	cmd := getRunCmd()
	err := cmd.ParseFlags([]string{
		"--format", "sqlite", "-o", "out/", "-m", "fail",
	})
	require.NoError(t, err)

	c := config.New()
	c.Update(runFlags(cmd))

	assert.Equal(t, "sqlite", c.Output.Format)
	assert.Equal(t, "out", c.Output.Dir)
	assert.True(t, c.FailOnMalformed())
	assert.Equal(t, config.New().Input, c.Input,
		"unset flags keep previous values")
	assert.Equal(t, config.New().JobsNumber, c.JobsNumber)
}

// TestRunETL runs the whole pipeline on testdata with files output.
func TestRunETL(t *testing.T) {
	out := t.TempDir()
	cfg = config.New()

	cmd := getRunCmd()
	cmd.SetArgs([]string{
		"-s", "testdata/song_data",
		"-l", "testdata/log_data",
		"-o", out,
		"-j", "2",
	})
	require.NoError(t, cmd.Execute())

	for _, table := range []string{
		"songs_table", "artists_table", "users_table", "time_table",
		"songplays_table",
	} {
		assert.FileExists(t,
			filepath.Join(out, table, iofiles.SuccessFile), table)
	}

	users, err := os.ReadFile(filepath.Join(out, "users_table", iofiles.PartFile))
	require.NoError(t, err)
	assert.Contains(t, string(users), `"user_id":"26"`)
	assert.NotContains(t, string(users), `"user_id":"39"`,
		"users without song plays are excluded")
}

// TestRunETL_UnknownInput verifies that a missing input fails the run.
func TestRunETL_UnknownInput(t *testing.T) {
	cfg = config.New()

	cmd := getRunCmd()
	cmd.SetArgs([]string{
		"-s", filepath.Join(t.TempDir(), "none"),
		"-o", t.TempDir(),
	})
	assert.Error(t, cmd.Execute())
}
