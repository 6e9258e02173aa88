package main

import "github.com/linkmark/linkmark/cmd"

func main() {
	cmd.Execute()
}
