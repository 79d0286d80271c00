package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bassista/go_quill/internal/client"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/mutation"
	"github.com/bassista/go_quill/internal/notify"
	"github.com/bassista/go_quill/internal/querycache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "QUILL"

// cliApp holds the per-invocation client stack. It is built lazily so that
// offline commands such as token never dial the server.
type cliApp struct {
	out io.Writer
	v   *viper.Viper

	api   *client.Blog
	cache *querycache.Cache
	co    *mutation.Coordinator
	blog  *mutation.Blog
	stop  context.CancelFunc
	swept <-chan struct{}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &cliApp{out: out, v: viper.New()}

	root := &cobra.Command{
		Use:           "quillctl",
		Short:         "Manage a go_quill blog from the command line",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Logger.SetOutput(cmd.ErrOrStderr())
			if err := logger.SetLevel(a.v.GetString("log-level")); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080", "Blog server base URL (env QUILL_SERVER)")
	flags.String("token", "", "Bearer token for write operations (env QUILL_TOKEN)")
	flags.Duration("timeout", 10*time.Second, "HTTP request timeout (env QUILL_TIMEOUT)")
	flags.Duration("stale-time", 5*time.Second, "Query cache staleness window")
	flags.String("log-level", "warn", "Log level (env QUILL_LOG_LEVEL)")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newResourceCmd(a, typesSpec),
		newResourceCmd(a, labelsSpec),
		newSearchCmd(a),
		newStatsCmd(a),
		newTokenCmd(a),
	)
	return root
}

// connect builds the HTTP client, query cache and mutation coordinator.
// Callers defer the returned close.
func (a *cliApp) connect() func() {
	if a.blog != nil {
		return func() {}
	}
	h := client.New(a.v.GetString("server"),
		client.WithTimeout(a.v.GetDuration("timeout")),
		client.WithToken(a.v.GetString("token")),
	)
	a.api = client.NewBlog(h)
	a.cache = querycache.New(querycache.Options{StaleTime: a.v.GetDuration("stale-time")})

	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	a.swept = a.cache.Start(ctx)

	a.co = mutation.NewCoordinator(a.cache, notify.NewLogSink())
	a.blog = mutation.NewBlog(a.api, a.co, mutation.NewAllocator())
	return a.close
}

// close waits for settling mutations and background refetches.
func (a *cliApp) close() {
	if a.blog == nil {
		return
	}
	a.co.Wait()
	a.stop()
	<-a.swept
	a.cache.Wait()
	a.blog = nil
}

func (a *cliApp) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// settle waits for m and turns a rollback into the command's error.
func (a *cliApp) settle(m *mutation.Mutation) (any, error) {
	result, err := m.Wait()
	if err != nil {
		state := strings.ReplaceAll(m.State().String(), "_", " ")
		return nil, fmt.Errorf("%s %s: %s", m.Name(), state, client.MessageOf(err))
	}
	return result, nil
}
