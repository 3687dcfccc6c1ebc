package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkoosis/shopkit/pkg/graphql"
)

func (c *cli) graphqlCmd() *cobra.Command {
	var (
		opts      graphql.Options
		queryFile string
		vars      []string
		headers   []string
		raw       bool
	)
	cmd := &cobra.Command{
		Use:   "graphql",
		Short: "Run a GraphQL query against a platform API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (opts.Query == "") == (queryFile == "") {
				return usageErrorf("exactly one of --query or --query-file is required")
			}
			if queryFile != "" {
				data, err := os.ReadFile(queryFile)
				if err != nil {
					return fmt.Errorf("read query: %w", err)
				}
				opts.Query = string(data)
			}
			if opts.Token == "" {
				opts.Token = os.Getenv("SHOPKIT_TOKEN")
			}

			var err error
			if opts.Variables, err = parseVariables(vars); err != nil {
				return err
			}
			if opts.AddedHeaders, err = parsePairs(headers, ":"); err != nil {
				return err
			}
			opts.Response.SkipErrorHandling = raw

			client := graphql.NewClient(nil, c.logger)
			data, err := graphql.Request[json.RawMessage](cmd.Context(), client, opts)
			if err != nil {
				return err
			}
			return c.printJSON(data)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.API, "api", "Admin", "API name used in logs and errors")
	f.StringVar(&opts.URL, "url", "", "GraphQL endpoint")
	f.StringVar(&opts.Token, "token", "", "Access token (default $SHOPKIT_TOKEN)")
	f.StringVar(&opts.Query, "query", "", "Query text")
	f.StringVar(&queryFile, "query-file", "", "File containing the query")
	f.StringArrayVar(&vars, "var", nil, "Variable as name=value; JSON values are decoded")
	f.StringArrayVar(&headers, "header", nil, "Extra header as Name: value")
	f.BoolVar(&raw, "raw", false, "Print data even when the response carries errors")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

// printJSON indents data on a terminal and keeps it compact when piped.
func (c *cli) printJSON(data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	if isTTYWriter(c.stdout) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	_, err := fmt.Fprintf(c.stdout, "%s\n", data)
	return err
}

func parseVariables(pairs []string) (map[string]any, error) {
	kv, err := parsePairs(pairs, "=")
	if err != nil || kv == nil {
		return nil, err
	}
	out := make(map[string]any, len(kv))
	for k, v := range kv {
		var decoded any
		if json.Unmarshal([]byte(v), &decoded) == nil {
			out[k] = decoded
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func parsePairs(pairs []string, sep string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, sep)
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, usageErrorf("malformed %q, expected name%svalue", p, sep)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
