package main

import "github.com/schoolhub/apiserver/cmd"

func main() {
	cmd.Execute()
}
