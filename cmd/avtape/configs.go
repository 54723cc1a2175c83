package main

import (
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
)

type MainConfig struct {
	V     bool `cli:"name=v aliases=verbose desc='log to stderr'"`
	Color bool `cli:"name=color desc='color output even when it is not a terminal'"`

	Logger *zap.Logger

	Main *cli.Command
}

type SchemaConfig struct {
	*MainConfig
	Schema *cli.Command
}

type CanonicalConfig struct {
	*MainConfig
	Canonical *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Diff *cli.Command
}

type GrammarConfig struct {
	*MainConfig
	Grammar *cli.Command
}

type QueueConfig struct {
	*MainConfig
	MaxSize int `cli:"name=max desc='size the queue file may grow to'"`

	Queue *cli.Command
}

type InfoConfig struct {
	*QueueConfig
	Info *cli.Command
}

type AddConfig struct {
	*QueueConfig
	Schema string `cli:"name=schema aliases=s desc='schema of the added values'"`

	Add *cli.Command
}

type PeekConfig struct {
	*QueueConfig
	Schema string `cli:"name=schema aliases=s desc='schema the values were added with'"`
	Reader string `cli:"name=reader aliases=r desc='schema to read the values as'"`
	N      int    `cli:"name=n desc='number of values to peek'"`
	Limit  int    `cli:"name=limit desc='maximum total size of the peeked elements'"`
	Where  string `cli:"name=where aliases=w desc='only show values for which the expression is true'"`

	Peek *cli.Command
}

type RemoveConfig struct {
	*QueueConfig
	N int `cli:"name=n desc='number of elements to remove'"`

	Remove *cli.Command
}

type ClearConfig struct {
	*QueueConfig
	Clear *cli.Command
}
