// Package main implements a standalone demonstration of the coprocessor
// against an in-memory ordered KV table, exercising both passthrough
// projection and grouped aggregation without a real storage engine or RPC
// framing (both out of scope per spec §1).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dingodb/coprocessor/internal/config"
	"github.com/dingodb/coprocessor/internal/coprocessor/exec"
	"github.com/dingodb/coprocessor/internal/coprocessor/program"
	"github.com/dingodb/coprocessor/pkg/rowcodec"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		mode        string
		rowCount    int
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&mode, "mode", "aggregate", "Demo mode: passthrough or aggregate")
	flag.IntVar(&rowCount, "rows", 20, "Number of synthetic rows to seed")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "coprocessor-demo - drive the pushdown coprocessor against an in-memory table\n\n")
		fmt.Fprintf(os.Stderr, "Usage: coprocessor-demo [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  coprocessor-demo --mode aggregate --rows 500\n")
		fmt.Fprintf(os.Stderr, "  coprocessor-demo --mode passthrough --config demo.yaml\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("coprocessor-demo version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	printBanner(cfg, mode, rowCount)

	switch mode {
	case "passthrough":
		if err := runPassthrough(cfg, rowCount); err != nil {
			log.Fatalf("passthrough demo failed: %v", err)
		}
	case "aggregate":
		if err := runAggregate(cfg, rowCount); err != nil {
			log.Fatalf("aggregate demo failed: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q, expected passthrough or aggregate", mode)
	}
}

func loadConfig(configFile string) (*config.CoprocessorConfig, error) {
	var cfg *config.CoprocessorConfig
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printBanner(cfg *config.CoprocessorConfig, mode string, rowCount int) {
	log.Printf("coprocessor-demo starting")
	log.Printf("  mode:            %s", mode)
	log.Printf("  rows:            %d", rowCount)
	log.Printf("  max_fetch_count: %d", cfg.Execute.MaxFetchCount)
	log.Printf("  max_bytes_rpc:   %d", cfg.Execute.MaxBytesRPC)
	log.Printf("  log_level:       %s", cfg.LogLevel)
}

// demoSchema is a three column table: an INTEGER key, a BOOL group flag,
// and a nullable LONG measure.
func demoSchema(commonID int64) rowcodec.Schema {
	return rowcodec.Schema{
		CommonID:      commonID,
		SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			{Type: scalar.INTEGER, IsKey: true, IsNullable: false, Index: 0},
			{Type: scalar.BOOL, IsKey: false, IsNullable: false, Index: 1},
			{Type: scalar.LONG, IsKey: false, IsNullable: true, Index: 2},
		},
	}
}

func seedRows(schema rowcodec.Schema, count int) []rowcodec.KV {
	enc := rowcodec.NewRecordEncoder(schema)
	kvs := make([]rowcodec.KV, 0, count)
	for i := 0; i < count; i++ {
		measure := scalar.LongValue(int64(i * 7 % 13))
		if i%5 == 0 {
			measure = scalar.NullValue(scalar.LONG)
		}
		row := rowcodec.Row{
			scalar.IntValue(int32(i)),
			scalar.BoolValue(i%2 == 0),
			measure,
		}
		kv, err := enc.Encode(row)
		if err != nil {
			log.Fatalf("seedRows: encode row %d: %v", i, err)
		}
		kvs = append(kvs, kv)
	}
	return kvs
}

func runAggregate(cfg *config.CoprocessorConfig, rowCount int) error {
	commonID := int64(uuid.New().ID())
	original := demoSchema(commonID)
	result := rowcodec.Schema{
		CommonID:      commonID,
		SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			{Type: scalar.BOOL, IsNullable: false, Index: 0},
			{Type: scalar.LONG, IsNullable: false, Index: 1},
			{Type: scalar.LONG, IsNullable: true, Index: 2},
		},
	}

	kvs := seedRows(original, rowCount)
	iter := exec.NewMemIterator(kvs)
	iter.Seek(nil)

	cp := exec.New()
	if err := cp.Open(program.Program{
		SchemaVersion:  1,
		OriginalSchema: original,
		ResultSchema:   result,
		GroupByColumns: []int32{1},
		AggregationOperators: []program.AggOp{
			{Func: program.COUNT, ColumnIndex: 2},
			{Func: program.SUM, ColumnIndex: 2},
		},
	}); err != nil {
		return fmt.Errorf("Open: %w", err)
	}
	defer cp.Close()

	dec := rowcodec.NewRecordDecoder(result)
	calls := 0
	for {
		out, hasMore, err := cp.Execute(iter, false, cfg.Execute.MaxFetchCount, cfg.Execute.MaxBytesRPC)
		if err != nil {
			return fmt.Errorf("Execute: %w", err)
		}
		calls++
		for _, kv := range out {
			row, err := dec.Decode(kv.Key, kv.Value)
			if err != nil {
				return fmt.Errorf("Decode: %w", err)
			}
			log.Printf("  group even=%v count=%d sum=%s", row[0].Bool(), row[1].Int64(), row[2])
		}
		if !hasMore {
			break
		}
	}
	stats := cp.Stats()
	log.Printf("done: %d Execute calls, %d rows scanned, %d groups flushed", calls, stats.RowsScanned, stats.GroupsFlushed)
	return nil
}

func runPassthrough(cfg *config.CoprocessorConfig, rowCount int) error {
	commonID := int64(uuid.New().ID())
	original := demoSchema(commonID)
	result := rowcodec.Schema{
		CommonID:      commonID,
		SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			{Type: scalar.LONG, IsNullable: true, Index: 0},
			{Type: scalar.INTEGER, IsNullable: false, Index: 1},
		},
	}

	kvs := seedRows(original, rowCount)
	iter := exec.NewMemIterator(kvs)
	iter.Seek(nil)

	cp := exec.New()
	if err := cp.Open(program.Program{
		SchemaVersion:    1,
		OriginalSchema:   original,
		ResultSchema:     result,
		SelectionColumns: []int32{2, 0},
	}); err != nil {
		return fmt.Errorf("Open: %w", err)
	}
	defer cp.Close()

	dec := rowcodec.NewRecordDecoder(result)
	calls, rows := 0, 0
	for {
		out, hasMore, err := cp.Execute(iter, false, cfg.Execute.MaxFetchCount, cfg.Execute.MaxBytesRPC)
		if err != nil {
			return fmt.Errorf("Execute: %w", err)
		}
		calls++
		rows += len(out)
		for _, kv := range out {
			row, err := dec.Decode(kv.Key, kv.Value)
			if err != nil {
				return fmt.Errorf("Decode: %w", err)
			}
			_ = row
		}
		if !hasMore {
			break
		}
	}
	log.Printf("done: %d Execute calls, %d rows projected", calls, rows)
	return nil
}
