package main

import (
	"fmt"

	"github.com/wildboar-foundation/datasets/cmdline"
	"github.com/wildboar-foundation/datasets/envutil"
	"github.com/wildboar-foundation/datasets/repository"
)

var listCmd = cmdline.Command{
	Name:     "list",
	Synopsis: "list the datasets available in the local archive",
	Args: &listArgs{
		DatasetFile: envutil.GetenvDefault("CB_DATASET_FILE", "datasets.zip"),
	},
}

type listArgs struct {
	DatasetFile string `arg:"--dataset-file" help:"local copy of the dataset archive"`
}

func (args *listArgs) Handle() error {
	repo, err := repository.Open(args.DatasetFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	names := repo.Datasets()
	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Printf("%d datasets\n", len(names))
	return nil
}
