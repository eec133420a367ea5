package main

import "github.com/artemshloyda/imagepresets/internal/cli"

func main() {
	cli.Execute()
}
