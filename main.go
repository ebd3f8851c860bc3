package main

import "github.com/parob/graphql-api/cmd"

func main() {
	cmd.Execute()
}
