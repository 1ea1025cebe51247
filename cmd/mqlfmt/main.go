// Copyright (c) HashiCorp, Inc.

// Command mqlfmt is a demonstration/smoke-test harness, not part of the
// library's tested contract: it parses an advanced query against a
// baked-in demo schema and prints the canonicalized query string alongside
// the SQL WHERE fragment it lowers to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	query "github.com/jimlambrt/fquery"
	fquerysql "github.com/jimlambrt/fquery/sql"
)

// cliValues adapts a single -query string into query.RequestValues, the
// same shape httpquery.Values gives an *http.Request.
type cliValues string

func (c cliValues) Method() string { return "GET" }
func (c cliValues) Query(key string) []string {
	if key == "query" {
		return []string{string(c)}
	}
	return nil
}
func (c cliValues) Body(string) []string { return nil }

func demoSchema() *query.Schema {
	schema, err := query.NewSchema(
		query.String("name", query.WithAttr("name"), query.WithFormIncluded()),
		query.Substring("description", query.WithAttr("description"), query.WithFormIncluded()),
		query.Integer("age", query.WithAttr("age"), query.WithFormIncluded()),
		query.Boolean("active", query.WithAttr("active"), query.WithFormIncluded()),
		query.DateTimeVar("created_at", query.WithAttr("created_at")),
	)
	if err != nil {
		panic(err)
	}
	return schema
}

func main() {
	raw := flag.String("query", "", "advanced query text to parse, e.g. `name=\"widget\" and age>3`")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *raw == "" {
		logger.Error("missing -query")
		os.Exit(1)
	}

	schema := demoSchema()
	adapter := fquerysql.New()
	source := cliValues(*raw)

	ctx := context.Background()
	bq, err := query.Bind(ctx, schema, adapter, source)
	if err != nil {
		logger.Error("bind failed", "error", err)
		os.Exit(1)
	}

	if errs := bq.Errors(); errs.HasErrors() {
		logger.Warn("query reported errors", "errors", errs.Error())
	}

	pred, err := bq.ToPredicate(ctx)
	if err != nil {
		logger.Error("lowering failed", "error", err)
		os.Exit(1)
	}

	where, ok := pred.(*fquerysql.WhereClause)
	if !ok {
		logger.Error("unexpected predicate type", "type", fmt.Sprintf("%T", pred))
		os.Exit(1)
	}

	fmt.Printf("canonical: %s\n", bq.ToQueryString())
	fmt.Printf("sql:       %s\n", where.Condition)
	fmt.Printf("args:      %v\n", where.Args)
}
