package main

import (
	"os"

	"github.com/wildboar-foundation/datasets/cmdline"
	"github.com/wildboar-foundation/datasets/envutil"
	"github.com/wildboar-foundation/datasets/repository"
)

var downloadCmd = cmdline.Command{
	Name:     "download",
	Synopsis: "download the dataset archive if it is not present",
	Args: &downloadArgs{
		URL:         repository.DefaultURL,
		DatasetFile: envutil.GetenvDefault("CB_DATASET_FILE", "datasets.zip"),
	},
}

type downloadArgs struct {
	URL         string `arg:"--url" help:"archive download location"`
	DatasetFile string `arg:"--dataset-file" help:"local copy of the dataset archive"`
	Force       bool   `arg:"--force" help:"download even if the archive exists"`
}

func (args *downloadArgs) Handle() error {
	if args.Force {
		if err := os.Remove(args.DatasetFile); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return repository.Ensure(args.URL, args.DatasetFile)
}
