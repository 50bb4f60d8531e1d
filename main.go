package main

import (
	"github.com/pasync/pasync/cmd"
	"github.com/pasync/pasync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
