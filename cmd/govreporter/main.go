// Command govreporter is the operator entrypoint for the ingestion
// pipeline and the MCP server: ingest SCOTUS opinions and Executive
// Orders into Qdrant, inspect progress, or serve search over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"governmentreporter/internal/config"
	"governmentreporter/internal/embedding"
	"governmentreporter/internal/govapi"
	"governmentreporter/internal/ingest"
	"governmentreporter/internal/llmextract"
	"governmentreporter/internal/mcpserver"
	"governmentreporter/internal/observability"
	"governmentreporter/internal/payload"
	"governmentreporter/internal/perf"
	"governmentreporter/internal/progress"
	"governmentreporter/internal/queryformat"
	"governmentreporter/internal/tokencount"
	"governmentreporter/internal/vectorstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(cfg, os.Args[2:])
	case "server":
		runServer(cfg)
	case "info":
		runInfo(cfg, os.Args[2:])
	case "query":
		runQuery(cfg, os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  govreporter ingest scotus|eo|all [-since YYYY-MM-DD] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-max N] [-batch N] [-concurrency N] [-dry-run]
  govreporter server
  govreporter query "<text>" [-limit N]
  govreporter info collections|stats|sample scotus|eo`)
}

func runIngest(cfg config.Config, args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	target := args[0]
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	since := fs.String("since", "", "fetch documents filed on or after this date (YYYY-MM-DD); SCOTUS only, alias for -start")
	start := fs.String("start", "", "start date (YYYY-MM-DD); both targets")
	end := fs.String("end", "", "end date (YYYY-MM-DD); both targets, defaults to today for SCOTUS")
	maxResults := fs.Int("max", 0, "cap the number of documents fetched (0 = no cap)")
	batchSize := fs.Int("batch", 50, "documents per upsert batch")
	concurrency := fs.Int("concurrency", 4, "documents processed in parallel within a batch")
	dryRun := fs.Bool("dry-run", false, "process and log but skip the vector store upsert")
	fs.Parse(args[1:])

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)
	ctx, cancel := signalContext()
	defer cancel()

	counter := tokencount.New()
	extractor := llmextract.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	builder := payload.NewBuilder(counter, extractor, cfg.ScotusChunking, cfg.EOChunking)
	embedder := embedding.New(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel)
	monitor := perf.NewMonitor()

	scotusSince := *since
	if scotusSince == "" {
		scotusSince = *start
	}

	switch target {
	case "scotus":
		runOne(ctx, cfg, "scotus", cfg.MCP.ScotusCollection, scotusSince, *end, *maxResults, *batchSize, *concurrency, *dryRun, builder, embedder, monitor)
	case "eo":
		runOne(ctx, cfg, "executive_order", cfg.MCP.EOCollection, *start, *end, *maxResults, *batchSize, *concurrency, *dryRun, builder, embedder, monitor)
	case "all":
		runOne(ctx, cfg, "scotus", cfg.MCP.ScotusCollection, scotusSince, *end, *maxResults, *batchSize, *concurrency, *dryRun, builder, embedder, monitor)
		runOne(ctx, cfg, "executive_order", cfg.MCP.EOCollection, *start, *end, *maxResults, *batchSize, *concurrency, *dryRun, builder, embedder, monitor)
	default:
		fmt.Fprintf(os.Stderr, "unknown ingest target %q (want scotus, eo, or all)\n", target)
		os.Exit(2)
	}
}

func runOne(ctx context.Context, cfg config.Config, docType, collection, startOrSince, end string, maxResults, batchSize, concurrency int, dryRun bool, builder *payload.Builder, embedder embedding.Generator, monitor *perf.Monitor) {
	tracker, err := progress.Open(cfg.ProgressDBPath, docType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open progress db: %v\n", err)
		os.Exit(1)
	}
	defer tracker.Close()

	var source ingest.Source
	if docType == "scotus" {
		source = &ingest.ScotusSource{
			Client:     govapi.NewCourtListenerClient(cfg),
			Builder:    builder,
			SinceDate:  startOrSince,
			EndDate:    end,
			MaxResults: maxResults,
		}
	} else {
		source = &ingest.EOSource{
			Client:     govapi.NewFederalRegisterClient(cfg),
			Builder:    builder,
			StartDate:  startOrSince,
			EndDate:    end,
			MaxResults: maxResults,
		}
	}

	var store ingest.VectorWriter
	if !dryRun {
		s, err := vectorstore.New(ctx, cfg.Qdrant, collection, embedding.Dimension, "cosine")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect vector store: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	runner := &ingest.Runner{
		DocumentType: docType,
		Collection:   collection,
		BatchSize:    batchSize,
		Concurrency:  concurrency,
		DryRun:       dryRun,
		ProgressOut:  os.Stdout,
		Source:       source,
		Progress:     tracker,
		Embedder:     embedder,
		Store:        store,
		Monitor:      monitor,
	}

	if err := runner.Run(ctx, startOrSince, end); err != nil {
		fmt.Fprintf(os.Stderr, "ingest %s: %v\n", docType, err)
		os.Exit(1)
	}
}

func runServer(cfg config.Config) {
	// stdout carries the JSON-RPC stream, so refuse to start rather than
	// let InitLogger fall back to stdout when the log file can't be opened.
	f, err := os.OpenFile(cfg.MCP.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open mcp log file %q: %v\n", cfg.MCP.LogPath, err)
		os.Exit(1)
	}
	f.Close()
	observability.InitLogger(cfg.MCP.LogPath, cfg.MCP.LogLevel)
	ctx := context.Background()

	formatter, err := queryformat.New(1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new formatter: %v\n", err)
		os.Exit(1)
	}

	stores := map[string]*vectorstore.Store{}
	for _, collection := range []string{cfg.MCP.ScotusCollection, cfg.MCP.EOCollection} {
		s, err := vectorstore.New(ctx, cfg.Qdrant, collection, embedding.Dimension, "cosine")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect vector store %s: %v\n", collection, err)
			os.Exit(1)
		}
		defer s.Close()
		stores[collection] = s
	}

	srv, err := mcpserver.New(ctx, mcpserver.Deps{
		Config:          cfg.MCP,
		Embedder:        embedding.New(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel),
		Formatter:       formatter,
		Stores:          stores,
		CourtListener:   govapi.NewCourtListenerClient(cfg),
		FederalRegister: govapi.NewFederalRegisterClient(cfg),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start mcp server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(); err != nil {
			errChan <- fmt.Errorf("mcp server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case <-sigChan:
	}
}

func runInfo(cfg config.Config, args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	ctx, cancel := signalContext()
	defer cancel()

	switch args[0] {
	case "collections":
		for _, collection := range []string{cfg.MCP.ScotusCollection, cfg.MCP.EOCollection} {
			s, err := vectorstore.New(ctx, cfg.Qdrant, collection, embedding.Dimension, "cosine")
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", collection, err)
				continue
			}
			info, err := s.CollectionInfo(ctx)
			s.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", collection, err)
				continue
			}
			fmt.Printf("%s: %d vectors, dim=%d, distance=%s\n", info.Name, info.VectorCount, info.Dimension, info.Distance)
		}
	case "stats":
		for _, docType := range []string{"scotus", "executive_order"} {
			tracker, err := progress.Open(cfg.ProgressDBPath, docType)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", docType, err)
				continue
			}
			stats, err := tracker.Statistics(ctx)
			tracker.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", docType, err)
				continue
			}
			fmt.Printf("%s: %+v\n", docType, stats)
		}
	case "sample":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: govreporter info sample scotus|eo")
			os.Exit(2)
		}
		collection := cfg.MCP.ScotusCollection
		if args[1] == "eo" {
			collection = cfg.MCP.EOCollection
		}
		s, err := vectorstore.New(ctx, cfg.Qdrant, collection, embedding.Dimension, "cosine")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", collection, err)
			os.Exit(1)
		}
		defer s.Close()
		// No scroll/listing endpoint is wired on Store; a zero vector
		// against cosine similarity still returns an arbitrary handful of
		// stored points, which is all a "sample" needs to show.
		zero := make([]float32, embedding.Dimension)
		results, err := s.SimilaritySearch(ctx, zero, 3, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sample %s: %v\n", collection, err)
			os.Exit(1)
		}
		for _, r := range results {
			fmt.Printf("%s: %+v\n", r.ID, r.Payload)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown info target %q (want collections, stats, or sample)\n", args[0])
		os.Exit(2)
	}
}

func runQuery(cfg config.Config, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, `usage: govreporter query "<text>" [-limit N]`)
		os.Exit(2)
	}
	text := args[0]
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	limit := fs.Int("limit", 10, "maximum number of results")
	fs.Parse(args[1:])

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)
	ctx, cancel := signalContext()
	defer cancel()

	formatter, err := queryformat.New(1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new formatter: %v\n", err)
		os.Exit(1)
	}
	stores := map[string]*vectorstore.Store{}
	for _, collection := range []string{cfg.MCP.ScotusCollection, cfg.MCP.EOCollection} {
		s, err := vectorstore.New(ctx, cfg.Qdrant, collection, embedding.Dimension, "cosine")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect vector store %s: %v\n", collection, err)
			os.Exit(1)
		}
		defer s.Close()
		stores[collection] = s
	}

	deps := mcpserver.Deps{
		Config:    cfg.MCP,
		Embedder:  embedding.New(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel),
		Formatter: formatter,
		Stores:    stores,
	}
	fmt.Println(deps.SearchGovernmentDocumentsText(ctx, text, *limit))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
