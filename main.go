/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package main

import "github.com/sparkify/sparkdl/cmd"

func main() {
	cmd.Execute()
}
