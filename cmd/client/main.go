package main

import "postercart/cmd/client/cmd"

func main() {
	cmd.Execute()
}
