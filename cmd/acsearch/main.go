// acsearch: typo-tolerant autocomplete over a static text corpus.
// Copyright (C) 2026  Guillermo Perry
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"acsearch/internal/acconfig"
	"acsearch/pkg/acsearch"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: acsearch build --out DIR ROOT [ROOT...]")
	fmt.Fprintln(os.Stderr, "       acsearch query --out DIR [--k N] [QUERY]")
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	outDir := fs.String("out", "", "output directory for the corpus.acx/corpus.cdb/corpus.fps artifacts")
	configPath := fs.String("config", "", "optional YAML config overriding the build defaults")
	fs.Parse(args)

	roots := fs.Args()
	if *outDir == "" || len(roots) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := acconfig.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logrus.WithError(err).Fatal("creating output directory")
	}

	paths := acsearch.Paths{
		ACXPath:        *outDir + "/corpus.acx",
		CDBPath:        *outDir + "/corpus.cdb",
		PrefixSumsPath: *outDir + "/corpus.fps",
	}
	if err := acsearch.Build(roots, cfg, paths, logrus.StandardLogger()); err != nil {
		logrus.WithError(err).Fatal("build failed")
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	outDir := fs.String("out", "", "directory holding the corpus.acx/corpus.cdb/corpus.fps artifacts")
	configPath := fs.String("config", "", "optional YAML config matching the one used at build time")
	k := fs.Uint("k", 5, "number of results to return")
	fs.Parse(args)

	if *outDir == "" {
		usage()
		os.Exit(2)
	}

	cfg, err := acconfig.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	paths := acsearch.Paths{
		ACXPath:        *outDir + "/corpus.acx",
		CDBPath:        *outDir + "/corpus.cdb",
		PrefixSumsPath: *outDir + "/corpus.fps",
	}
	engine, err := acsearch.Load(paths, cfg, logrus.StandardLogger())
	if err != nil {
		logrus.WithError(err).Fatal("loading corpus")
	}
	defer engine.Shutdown()

	query := strings.Join(fs.Args(), " ")
	if query != "" {
		emit(engine, query, *k)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		emit(engine, scanner.Text(), *k)
	}
}

func emit(engine *acsearch.Engine, query string, k uint) {
	results, err := engine.Complete(query, k)
	if err != nil {
		logrus.WithError(err).Error("query failed")
		return
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		enc.Encode(r)
	}
}
