package main

import "github.com/audiolibrelab/vrec/cmd"

func main() {
	cmd.Execute()
}
