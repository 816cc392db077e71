package main

import (
	"fmt"

	"github.com/wildboar-foundation/datasets/bundle"
	"github.com/wildboar-foundation/datasets/cmdline"
)

var verifyCmd = cmdline.Command{
	Name:     "verify",
	Synopsis: "verify a bundle archive against its checksum and manifest",
	Args:     &verifyArgs{},
}

type verifyArgs struct {
	Bundle string `arg:"positional,required" help:"path to the bundle zip"`
}

func (args *verifyArgs) Handle() error {
	if err := bundle.Verify(args.Bundle); err != nil {
		return err
	}
	fmt.Printf("%s: OK\n", args.Bundle)
	return nil
}
