package main

import (
	"github.com/robotalks/sent.go/pkg/cli/sh"

	_ "github.com/robotalks/sent.go/pkg/cli/cmds/decoder"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
