package main

import "palmdash/cmd/palmdash/cmd"

func main() {
	cmd.Execute()
}
