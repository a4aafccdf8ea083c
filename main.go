package main

import "github.com/iplan/cellact/cmd"

func main() {
	cmd.Execute()
}
