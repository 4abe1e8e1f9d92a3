package main

import "nursery-sync/cmd"

func main() {
	cmd.Execute()
}
