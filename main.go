package main

import "github.com/onlyburns/oburnctl/cmd"

func main() {
	cmd.Execute()
}
