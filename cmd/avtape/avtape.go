package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"github.com/stewi1014/avtape/encio"
)

func avtapeMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	cfg.Logger = zap.NewNop()
	if cfg.V {
		cfg.Logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer cfg.Logger.Sync()
	}
	encio.SetLogger(cfg.Logger)

	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	return runSub(cc, cfg.Main, args)
}

func queueMain(cfg *QueueConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Queue.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.MaxSize < 0 {
		return fmt.Errorf("%w: -max must not be negative", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	return runSub(cc, cfg.Queue, args)
}

func runSub(cc *cli.Context, cmd *cli.Command, args []string) error {
	sub := cmd.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err := sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}
