package main

import "planner/cmd/server/cmd"

func main() {
	cmd.Execute()
}
