package main

import "github.com/ekefan/afitlms-edgeserver/pkg/cli/sh"

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
