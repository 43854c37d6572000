package cmd

import (
	"fmt"
	"os"

	app "github.com/sparkify/sparkdl/pkg"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", app.Version, app.Build)
		os.Exit(0)
	}
}

// runFlags collects options from flags that were set explicitly, so
// values from env and config file are kept otherwise.
func runFlags(cmd *cobra.Command) []config.Option {
	var res []config.Option
	fs := cmd.Flags()

	str := func(name string, opt func(string) config.Option) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			res = append(res, opt(v))
		}
	}
	str("song-data", config.OptInputSongData)
	str("log-data", config.OptInputLogData)
	str("output", config.OptOutputDir)
	str("format", config.OptOutputFormat)
	str("malformed", config.OptMalformed)

	if fs.Changed("jobs") {
		v, _ := fs.GetInt("jobs")
		res = append(res, config.OptJobsNumber(v))
	}
	return res
}
