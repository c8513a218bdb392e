package main

import "github.com/tanq16/kisame/cmd"

func main() {
	cmd.Execute()
}
