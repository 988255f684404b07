package main

import "github.com/mouse-blink/loom/cmd"

func main() {
	cmd.Execute()
}
