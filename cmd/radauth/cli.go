package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/oklog/run"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/config"
	"github.com/vitalvas/radauth/pkg/handler"
	"github.com/vitalvas/radauth/pkg/log"
)

// Set with -ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	exitAccepted    = 0
	exitRejected    = 1
	exitUnavailable = 2
	exitUsage       = 3
)

type CLI struct {
	Log          log.Config      `embed:"" prefix:"log."`
	Debug        bool            `short:"d" help:"Log at debug level regardless of --log.level."`
	Authenticate AuthenticateCmd `name:"authenticate" cmd:"" help:"Authenticate a username and one-time token."`
	Validate     ValidateCmd     `name:"validate" cmd:"" help:"Validate the server configuration file."`
	Version      struct {
		Verbose bool `short:"V" help:"Verbose."`
	} `name:"version" cmd:"" help:"Show version"`
}

type AuthenticateCmd struct {
	Config   string        `short:"c" env:"RADAUTH_CONFIG" default:"/etc/radauth/radauth.yaml" help:"Server configuration file."`
	Token    string        `short:"t" env:"RADAUTH_TOKEN" help:"One-time token. Read from stdin when empty."`
	Deadline time.Duration `default:"30s" help:"Overall deadline across all servers and retries."`
	Username string        `arg:"" help:"Username to authenticate."`
}

type ValidateCmd struct {
	Config string `short:"c" env:"RADAUTH_CONFIG" default:"/etc/radauth/radauth.yaml" help:"Server configuration file."`
}

// authenticateResult is printed as JSON on stdout
type authenticateResult struct {
	Status     string              `json:"status"`
	Server     string              `json:"server,omitempty"`
	Principal  string              `json:"principal,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("radauth"),
		kong.Description("RADIUS token authentication with multi-server failover"),
		kong.Configuration(kongyaml.Loader, "/etc/radauth/cli.yaml", "~/.radauth.yaml"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "failed to build command line parser: %v\n", err)
		return exitUsage
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "radauth: %v\n", err)
		return exitUsage
	}

	logger := newLogger(&cli, stderr)

	switch ctx.Command() {
	case "authenticate <username>":
		return runAuthenticate(&cli.Authenticate, logger, stdin, stdout)
	case "validate":
		return runValidate(&cli.Validate, logger, stdout)
	case "version":
		if cli.Version.Verbose {
			_ = json.NewEncoder(stdout).Encode(map[string]any{
				"version": version,
				"commit":  commit,
				"date":    date,
			})
		} else {
			fmt.Fprintln(stdout, version)
		}
		return exitAccepted
	default:
		fmt.Fprintln(stderr, ctx.Command())
		return exitUsage
	}
}

func newLogger(cli *CLI, w io.Writer) *log.DefaultLogger {
	logger := log.New(cli.Log)
	logger.GetLogrus().SetOutput(w)
	if cli.Debug {
		logger.SetLevel("debug")
	}
	return logger
}

func runAuthenticate(cmd *AuthenticateCmd, logger log.Logger, stdin io.Reader, stdout io.Writer) int {
	token := cmd.Token
	if token == "" {
		var err error
		if token, err = readToken(stdin); err != nil {
			logger.Errorf("failed to read token: %v", err)
			return exitUsage
		}
	}

	file, authenticator, err := config.LoadAuthenticator(cmd.Config, logger)
	if err != nil {
		logger.Errorf("failed to load configuration: %v", err)
		return exitUsage
	}

	h, err := handler.New(file.Name, authenticator, handler.WithLogger(logger))
	if err != nil {
		logger.Errorf("failed to create handler: %v", err)
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Deadline)
	defer cancel()

	var (
		result  *handler.Result
		authErr error
	)

	group := new(run.Group)
	group.Add(func() error {
		result, authErr = h.Authenticate(ctx, cmd.Username, token)
		return nil
	}, func(error) {
		cancel()
	})
	addQuitSignal(group, logger)

	if err := group.Run(); err != nil {
		logger.Errorf("authentication aborted: %v", err)
	}

	return report(stdout, result, authErr)
}

func report(stdout io.Writer, result *handler.Result, err error) int {
	out := authenticateResult{}
	code := exitAccepted

	switch {
	case err == nil:
		out.Status = auth.StatusAccepted.String()
		out.Server = result.Outcome.Server
		out.Principal = result.Principal.ID
		out.Attributes = result.Principal.Attributes
	case errors.Is(err, handler.ErrRejected):
		out.Status = auth.StatusRejected.String()
		code = exitRejected
	case errors.Is(err, handler.ErrChallengeUnsupported):
		out.Status = auth.StatusChallengeRequested.String()
		code = exitRejected
	case errors.Is(err, handler.ErrInvalidCredentials):
		out.Status = "invalid"
		code = exitUsage
	default:
		out.Status = auth.StatusTransportFailed.String()
		code = exitUnavailable
	}
	if err != nil {
		out.Error = err.Error()
	}

	_ = json.NewEncoder(stdout).Encode(out)
	return code
}

func runValidate(cmd *ValidateCmd, logger log.Logger, stdout io.Writer) int {
	file, err := config.Load(cmd.Config)
	if err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return exitUsage
	}

	settings, err := file.Settings()
	if err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return exitUsage
	}

	fmt.Fprintf(stdout, "%s: %d servers, failover on exception=%t, on authentication failure=%t\n",
		file.Name, len(settings.Servers), settings.FailoverOnException, settings.FailoverOnAuthenticationFailure)
	for i := range settings.Servers {
		server := &settings.Servers[i]
		fmt.Fprintf(stdout, "  %d. %s timeout=%s retries=%d\n", i+1, server.Name(), server.Timeout, server.Retries)
	}
	return exitAccepted
}

// readToken reads the first line of r
func readToken(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return "", nil
}

func addQuitSignal(group *run.Group, logger log.Logger) {
	quit := make(chan struct{})
	group.Add(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(c)
		select {
		case sig := <-c:
			logger.Infof("received signal %s", sig)
			return fmt.Errorf("received signal %s", sig)
		case <-quit:
			return nil
		}
	}, func(error) {
		close(quit)
	})
}
