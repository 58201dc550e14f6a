// Command radtest-server runs a minimal RADIUS authentication server for
// exercising radauth by hand.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/oklog/run"

	"github.com/vitalvas/radauth/pkg/log"
	"github.com/vitalvas/radauth/pkg/packet"
	"github.com/vitalvas/radauth/pkg/radtest"
)

type CLI struct {
	LogLevel             string   `enum:"trace,debug,info,warn,error" default:"info" help:"Log level."`
	Listen               string   `short:"l" default:"127.0.0.1:1812" help:"UDP address to listen on."`
	Secret               string   `short:"s" env:"RADTEST_SECRET" default:"testing123" help:"Shared secret."`
	User                 []string `short:"u" help:"Accepted credentials as username=password. Repeatable."`
	ReplyMessage         string   `help:"Reply-Message added to every Access-Accept."`
	Challenge            string   `help:"Answer every request with an Access-Challenge carrying this State."`
	MessageAuthenticator bool     `help:"Sign replies with Message-Authenticator."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("radtest-server"),
		kong.Description("RADIUS test server"),
		kong.UsageOnError(),
	)

	logger := log.NewLoggerWithLevel(cli.LogLevel)

	h, err := buildHandler(&cli)
	ctx.FatalIfErrorf(err)

	srv := radtest.New(radtest.Config{
		Addr:                 cli.Listen,
		Secret:               []byte(cli.Secret),
		Handler:              h,
		MessageAuthenticator: cli.MessageAuthenticator,
		Logger:               logger,
	})
	srv.Use(radtest.Logging(logger))

	group := new(run.Group)
	group.Add(func() error {
		logger.Infof("RADIUS server listening on %s", cli.Listen)
		return srv.ListenAndServe()
	}, func(error) {
		srv.Close()
	})

	quit := make(chan struct{})
	group.Add(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-c:
			logger.Infof("received signal %s", sig)
			return nil
		case <-quit:
			return nil
		}
	}, func(error) {
		close(quit)
	})

	ctx.FatalIfErrorf(group.Run())
}

func buildHandler(cli *CLI) (radtest.Handler, error) {
	if cli.Challenge != "" {
		return radtest.Challenge([]byte(cli.Challenge), cli.ReplyMessage), nil
	}

	users, err := parseUsers(cli.User)
	if err != nil {
		return nil, err
	}

	var attrs []*packet.Attribute
	if cli.ReplyMessage != "" {
		attr, err := packet.NewStringAttribute(packet.AttrReplyMessage, cli.ReplyMessage)
		if err != nil {
			return nil, fmt.Errorf("invalid reply message: %w", err)
		}
		attrs = append(attrs, attr)
	}

	if len(users) == 0 {
		return radtest.Accept(attrs...), nil
	}
	return radtest.Users(users, attrs...), nil
}

func parseUsers(values []string) (map[string]string, error) {
	users := make(map[string]string, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid user format: %q (expected 'username=password')", value)
		}
		users[strings.TrimSpace(parts[0])] = parts[1]
	}
	return users, nil
}
