package iooptimize

import (
	"github.com/cheggaaa/pb/v3"
)

// newProgressBar starts a bar that disappears when finished, leaving
// the terminal to gn.Info summaries.
func newProgressBar(total int, prefix string) *pb.ProgressBar {
	bar := pb.Full.Start(total)
	bar.Set("prefix", prefix)
	bar.Set(pb.CleanOnFinish, true)
	return bar
}
