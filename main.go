package main

import "chatkit/src/cmd"

func main() {
	cmd.Execute()
}
