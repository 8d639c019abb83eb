package main

import "gridhour/cmd"

func main() {
	cmd.Execute()
}
