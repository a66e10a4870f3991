package main

import "github.com/emberhq/valet/cmd"

func main() {
	cmd.Execute()
}
