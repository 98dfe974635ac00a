package main

import "s3-compare/cmd"

func main() {
	cmd.Execute()
}
