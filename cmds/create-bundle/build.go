package main

import (
	"runtime"

	"github.com/wildboar-foundation/datasets/bundle"
	"github.com/wildboar-foundation/datasets/cmdline"
	"github.com/wildboar-foundation/datasets/emmott"
	"github.com/wildboar-foundation/datasets/envutil"
	"github.com/wildboar-foundation/datasets/errors"
	"github.com/wildboar-foundation/datasets/repository"
)

var buildCmd = cmdline.Command{
	Name:     "build",
	Synopsis: "build a labeled, checksummed bundle from the dataset archive",
	Args: &buildArgs{
		Name:          "bundle",
		URL:           repository.DefaultURL,
		DatasetFile:   envutil.GetenvDefault("CB_DATASET_FILE", "datasets.zip"),
		ResultDir:     envutil.GetenvDefault("CB_RESULT_DIR", "npy"),
		Include:       envutil.GetenvList("CB_INCLUDE_DATASET"),
		Difficulty:    envutil.GetenvDefault("CB_DIFFICULTY", string(emmott.All)),
		Seed:          envutil.GetenvDefaultInt64("CB_SEED", 1),
		Contamination: emmott.DefaultContamination,
		NumGo:         runtime.NumCPU(),
	},
}

type buildArgs struct {
	Name          string   `arg:"--name" help:"bundle name, used for the archive file"`
	URL           string   `arg:"--url" help:"archive download location"`
	DatasetFile   string   `arg:"--dataset-file" help:"local copy of the dataset archive"`
	ResultDir     string   `arg:"--result-dir" help:"directory receiving the npy files"`
	Include       []string `arg:"--include" help:"dataset names to bundle"`
	Difficulty    string   `arg:"--difficulty" help:"outlier difficulty: simple, easy, medium, hard or all"`
	Contamination float64  `arg:"--contamination" help:"outlier fraction of the labeled output"`
	Seed          int64    `arg:"--seed" help:"random seed for outlier selection"`
	NumGo         int      `arg:"--num-go" help:"number of datasets processed concurrently"`
	NoArchive     bool     `arg:"--no-archive" help:"skip zipping and checksumming the result dir"`
}

func (args *buildArgs) Validate() error {
	if len(args.Include) == 0 {
		return errors.New("no datasets included")
	}
	_, err := emmott.ParseDifficulty(args.Difficulty)
	return err
}

func (args *buildArgs) Handle() error {
	if err := repository.Ensure(args.URL, args.DatasetFile); err != nil {
		return err
	}

	repo, err := repository.Open(args.DatasetFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	builder, err := bundle.NewBuilder(repo, bundle.Options{
		Name:          args.Name,
		ResultDir:     args.ResultDir,
		Include:       args.Include,
		Difficulty:    emmott.Difficulty(args.Difficulty),
		Contamination: args.Contamination,
		Seed:          args.Seed,
		NumGo:         args.NumGo,
	})
	if err != nil {
		return err
	}

	if _, err := builder.Build(); err != nil {
		return err
	}
	if args.NoArchive {
		return nil
	}
	return builder.Archive(args.Name + ".zip")
}
