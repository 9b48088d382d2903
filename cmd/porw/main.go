package main

import (
	"github.com/mwillis775/PoRW-sub001/cmd/porw/cmd"
)

func main() {
	cmd.New().Execute()
}
