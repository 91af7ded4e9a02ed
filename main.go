package main

import (
	"go-tdms/cli"
)

func main() {
	cli.Start()
}
