package main

import "github.com/naka-gawa/github-stats-sync/cmd"

func main() {
	cmd.Execute()
}
