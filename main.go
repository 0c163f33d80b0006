package main

import "github.com/glebglazov/vibe-coding-done-right/cmd"

func main() {
	cmd.Execute()
}
