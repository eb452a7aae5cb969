package main

import "github.com/datascribe-cli/datascribe/cmd"

func main() {
	cmd.Execute()
}
