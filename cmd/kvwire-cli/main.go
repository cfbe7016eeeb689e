package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kvwire/kvwire/pkg/client"
	"github.com/kvwire/kvwire/pkg/common"
)

var (
	logger = common.InitLogger().WithName("cli")
	cliCfg CLIConfig
)

type CLIConfig struct {
	Addr            string        `help:"Server address" name:"addr" default:"127.0.0.1:6379"`
	InlineThreshold int           `help:"Encoded size under which text commands go inline" name:"inline-threshold" default:"1000"`
	ReadBuffer      int           `help:"Transport read buffer size in bytes" name:"read-buffer" default:"8192"`
	Timeout         time.Duration `help:"Per-command timeout" default:"5s"`
	Retry           bool          `help:"Retry the initial dial with backoff" default:"false"`
	Command         []string      `arg:"" name:"command" help:"Command and arguments (e.g. GET mykey)"`
}

func (c *CLIConfig) Validate() error {
	if len(c.Command) == 0 {
		return fmt.Errorf("no command given")
	}
	return nil
}

func main() {
	kctx := kong.Parse(&cliCfg)
	if err := cliCfg.Validate(); err != nil {
		kctx.FatalIfErrorf(err)
	}

	opts := []client.Option{
		client.WithInlineThreshold(cliCfg.InlineThreshold),
		client.WithReadBufferSize(cliCfg.ReadBuffer),
	}
	ctx, cancel := context.WithTimeout(context.Background(), cliCfg.Timeout)
	defer cancel()

	var (
		conn *client.Conn
		err  error
	)
	if cliCfg.Retry {
		conn, err = client.DialWithRetry(ctx, cliCfg.Addr, opts...)
	} else {
		conn, err = client.Dial(ctx, cliCfg.Addr, opts...)
	}
	if err != nil {
		logger.Error(err, "Failed to connect", "Addr", cliCfg.Addr)
		os.Exit(1)
	}
	defer conn.Close()

	reply, err := conn.DoText(ctx, cliCfg.Command...)
	if err != nil {
		var serverErr client.ServerError
		if errors.As(err, &serverErr) {
			fmt.Printf("(error) %s\n", serverErr)
			os.Exit(1)
		}
		logger.Error(err, "Command failed")
		os.Exit(1)
	}
	fmt.Println(reply.String())
}
