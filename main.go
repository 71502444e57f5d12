package main

import "github.com/naka-gawa/github-traffic/cmd"

func main() {
	cmd.Execute()
}
