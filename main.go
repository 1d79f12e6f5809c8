package main

import "github.com/gaurav-prasanna/pagegrep/cmd"

func main() {
	cmd.Execute()
}
