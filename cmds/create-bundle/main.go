package main

import (
	"github.com/wildboar-foundation/datasets/cmdline"
)

func main() {
	cmdline.MustDispatch(buildCmd, verifyCmd, listCmd, downloadCmd)
}
