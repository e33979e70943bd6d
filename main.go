package main

import "github.com/fatiguetools/matassign/cmd"

func main() {
	cmd.Execute()
}
