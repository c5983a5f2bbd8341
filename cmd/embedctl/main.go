// Command embedctl prints the embedding vector for one piece of text, for
// ad-hoc inspection of the configured embedding model without running a
// full ingest.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"governmentreporter/internal/config"
	"governmentreporter/internal/embedding"
)

func main() {
	log.SetFlags(0)
	var (
		model = flag.String("model", "", "override the embedding model")
		text  = flag.String("text", "", "text to embed (use -stdin to read from STDIN)")
		stdin = flag.Bool("stdin", false, "read entire STDIN as input text")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *model == "" {
		*model = cfg.OpenAIEmbeddingModel
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY not set (set in .env or the environment)")
	}

	var input string
	if *stdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		input = string(b)
	} else {
		input = *text
	}
	if input == "" {
		log.Fatal("no input provided; use -text or -stdin")
	}

	generator := embedding.New(cfg.OpenAIAPIKey, *model)
	vector, err := generator.GenerateEmbedding(context.Background(), input)
	if err != nil {
		log.Fatalf("generate embedding: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vector); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
