// Command mosaicql runs (or serves) the demo GraphQL domain: a City store
// joined across a mapping boundary to a SQLite-backed Country store (§4.G,
// §4.H). Flags are bound through viper so every setting is also overridable
// by MOSAICQL_-prefixed environment variables; no config file is read.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanpama/mosaicql/internal/backend"
	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/engine"
	"github.com/hanpama/mosaicql/internal/eventbus"
	"github.com/hanpama/mosaicql/internal/events"
	"github.com/hanpama/mosaicql/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("mosaicql")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "mosaicql",
		Short: "A composite-query GraphQL engine over an in-memory city store and a SQLite country store",
	}
	root.PersistentFlags().String("sqlite-dsn", ":memory:", "SQLite DSN for the country store")
	root.PersistentFlags().Bool("log-events", false, "log engine-stage events (GraphQL start/finish, completion batches) to stderr")
	_ = v.BindPFlag("sqlite.dsn", root.PersistentFlags().Lookup("sqlite-dsn"))
	_ = v.BindPFlag("log.events", root.PersistentFlags().Lookup("log-events"))

	root.AddCommand(newServeCmd(v), newRunCmd(v))
	return root
}

func buildDomain(v *viper.Viper) (*backend.Domain, error) {
	if v.GetBool("log.events") {
		eventbus.Use(eventbus.New())
		subscribeEventLogger()
	}
	return backend.Build(context.Background(), backend.Config{SqliteDSN: v.GetString("sqlite.dsn")})
}

func subscribeEventLogger() {
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		log.Printf("graphql %s %q: %d error(s) in %s", e.OperationType, e.OperationName, len(e.Errors), e.Duration)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.CompletionStage) {
		log.Printf("completion stage %s: %d request(s) in %s", e.Interpreter, e.BatchSize, e.Duration)
	})
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			dom, err := buildDomain(v)
			if err != nil {
				return err
			}
			driver := engine.NewDriver(dom.Schema, dom.RootMappings)

			var opts []server.Option
			if v.GetBool("server.pretty") {
				opts = append(opts, server.WithPretty())
			}
			if timeout := v.GetDuration("server.timeout"); timeout > 0 {
				opts = append(opts, server.WithTimeout(timeout))
			}
			if origins := v.GetStringSlice("server.cors-origin"); len(origins) > 0 {
				opts = append(opts, server.WithCORS(origins...))
			}
			h := server.New(dom.Elaborator, driver, opts...)

			mux := http.NewServeMux()
			mux.Handle("/graphql", h)

			addr := v.GetString("server.addr")
			log.Printf("mosaicql listening on %s", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().Bool("pretty", false, "pretty-print JSON responses")
	cmd.Flags().Duration("timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origin, repeatable (use * to allow all)")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("server.pretty", cmd.Flags().Lookup("pretty"))
	_ = v.BindPFlag("server.timeout", cmd.Flags().Lookup("timeout"))
	_ = v.BindPFlag("server.cors-origin", cmd.Flags().Lookup("cors-origin"))
	return cmd
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Elaborate and execute a single query, printing the response JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			dom, err := buildDomain(v)
			if err != nil {
				return err
			}
			driver := engine.NewDriver(dom.Schema, dom.RootMappings)

			query, err := readQuery(v)
			if err != nil {
				return err
			}

			elaborated, probs := dom.Elaborator.Elaborate(query, v.GetString("run.operation"), nil)
			if len(probs) > 0 {
				return printResponse(engine.MkResponse(nil, false, probs), v.GetBool("run.pretty"))
			}
			data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
			return printResponse(engine.MkResponse(data, true, runProbs), v.GetBool("run.pretty"))
		},
	}
	cmd.Flags().String("query", "", "query text (reads stdin if empty and --file is unset)")
	cmd.Flags().String("file", "", "path to a file containing query text")
	cmd.Flags().String("operation", "", "operation name, when the document has more than one")
	cmd.Flags().Bool("pretty", true, "pretty-print the response JSON")
	_ = v.BindPFlag("run.query", cmd.Flags().Lookup("query"))
	_ = v.BindPFlag("run.file", cmd.Flags().Lookup("file"))
	_ = v.BindPFlag("run.operation", cmd.Flags().Lookup("operation"))
	_ = v.BindPFlag("run.pretty", cmd.Flags().Lookup("pretty"))
	return cmd
}

func readQuery(v *viper.Viper) (string, error) {
	if q := v.GetString("run.query"); q != "" {
		return q, nil
	}
	if path := v.GetString("run.file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	return string(b), nil
}

func printResponse(resp map[string]any, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
