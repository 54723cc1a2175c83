package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "avtape").
		WithSynopsis("avtape [opts] command [opts]").
		WithDescription("avtape inspects schemas, their resolution grammars and queue files.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return avtapeMain(cfg, cc, args)
		}).
		WithSubs(
			SchemaCommand(cfg),
			GrammarCommand(cfg),
			QueueCommand(cfg))
}

func SchemaCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Schema, "schema").
		WithAliases("s").
		WithSynopsis("schema <subcommand>").
		WithDescription("schema commands").
		WithSubs(
			CanonicalCommand(cfg.MainConfig),
			DiffCommand(cfg.MainConfig))
}

func CanonicalCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CanonicalConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Canonical, "canonical").
		WithAliases("c").
		WithSynopsis("canonical <schema-file>").
		WithDescription("print the parsing canonical form and fingerprint of a schema").
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaCanonical(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff <writer-schema> <reader-schema>").
		WithDescription("diff the canonical forms of two schemas and check that data written with one can be read with the other").
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaDiff(cfg, cc, args)
		})
}

func GrammarCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GrammarConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Grammar, "grammar").
		WithAliases("g").
		WithSynopsis("grammar <writer-schema> [reader-schema]").
		WithDescription("print the grammar compiled for a writer schema, resolved against the reader schema if given").
		WithRun(func(cc *cli.Context, args []string) error {
			return grammar(cfg, cc, args)
		})
}

func QueueCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueueConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Queue, "queue").
		WithAliases("q").
		WithSynopsis("queue [opts] <subcommand>").
		WithDescription("queue file commands").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queueMain(cfg, cc, args)
		}).
		WithSubs(
			InfoCommand(cfg),
			AddCommand(cfg),
			PeekCommand(cfg),
			RemoveCommand(cfg),
			ClearCommand(cfg))
}

func InfoCommand(queueCfg *QueueConfig) *cli.Command {
	cfg := &InfoConfig{QueueConfig: queueCfg}
	return cli.NewCommandAt(&cfg.Info, "info").
		WithAliases("i").
		WithSynopsis("info <queue-file>").
		WithDescription("print the size of a queue file").
		WithRun(func(cc *cli.Context, args []string) error {
			return queueInfo(cfg, cc, args)
		})
}

func AddCommand(queueCfg *QueueConfig) *cli.Command {
	cfg := &AddConfig{QueueConfig: queueCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Add, "add").
		WithAliases("a").
		WithSynopsis("add -schema <schema-file> <queue-file> [json-values]").
		WithDescription("add JSON values to a queue file, reading them from stdin if none are given").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queueAdd(cfg, cc, args)
		})
}

func PeekCommand(queueCfg *QueueConfig) *cli.Command {
	cfg := &PeekConfig{QueueConfig: queueCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Peek, "peek").
		WithAliases("p").
		WithSynopsis("peek -schema <schema-file> [-reader <schema-file>] [-n N] [-limit B] [-where expr] <queue-file>").
		WithDescription("print values from the front of a queue file as JSON").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queuePeek(cfg, cc, args)
		})
}

func RemoveCommand(queueCfg *QueueConfig) *cli.Command {
	cfg := &RemoveConfig{QueueConfig: queueCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Remove, "remove").
		WithAliases("rm").
		WithSynopsis("remove [-n N] <queue-file>").
		WithDescription("remove elements from the front of a queue file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return queueRemove(cfg, cc, args)
		})
}

func ClearCommand(queueCfg *QueueConfig) *cli.Command {
	cfg := &ClearConfig{QueueConfig: queueCfg}
	return cli.NewCommandAt(&cfg.Clear, "clear").
		WithSynopsis("clear <queue-file>").
		WithDescription("remove every element of a queue file").
		WithRun(func(cc *cli.Context, args []string) error {
			return queueClear(cfg, cc, args)
		})
}
