package main

import "github.com/pyblish/pyblish-minbender/cmd"

func main() {
	cmd.Execute()
}
