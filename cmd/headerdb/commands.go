package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethergate/headerdb/api"
	"github.com/ethergate/headerdb/config"
	"github.com/ethergate/headerdb/core/headerdb"
	"github.com/ethergate/headerdb/core/types"
	"github.com/ethergate/headerdb/internal/debugutil"
	"github.com/ethergate/headerdb/internal/lock"
	"github.com/ethergate/headerdb/query"
)

// openChain locks cfg.DataDir against concurrent processes, opens the
// on-disk backend in its chaindata subdirectory (leveldb keeps its own
// LOCK file there, apart from the datadir lock), and wires a ChainWriter
// over it. The caller must call the returned close func exactly once.
func openChain(cfg config.Config) (*headerdb.ChainWriter, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating datadir: %w", err)
	}
	dirLock, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	db, err := leveldb.New(filepath.Join(cfg.DataDir, "chaindata"), 256, 0, "headerdb/", false)
	if err != nil {
		dirLock.Release()
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	store := headerdb.NewHeaderStore(db, cfg.DecodeCacheSize)
	canon := headerdb.NewCanonicalIndex(db, store)
	writer := headerdb.NewChainWriter(store, canon)

	closeFn := func() {
		db.Close()
		dirLock.Release()
	}
	return writer, closeFn, nil
}

var insertCommand = &cli.Command{
	Name:      "insert",
	Usage:     "Insert one or more headers (as a JSON array) from a file or stdin",
	ArgsUsage: "[file]",
	Action:    insertAction,
}

func insertAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	writer, closeFn, err := openChain(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var in *os.File
	if ctx.Args().Len() > 0 {
		f, err := os.Open(ctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	} else {
		in = os.Stdin
	}

	var headers []*types.Header
	if err := json.NewDecoder(in).Decode(&headers); err != nil {
		return fmt.Errorf("decoding headers: %w", err)
	}

	newCanonical, oldCanonical, err := writer.PersistChain(headers)
	if err != nil {
		return err
	}
	gethlog.Info("Inserted headers", "count", len(headers), "new", len(newCanonical), "old", len(oldCanonical))
	return nil
}

var headCommand = &cli.Command{
	Name:   "head",
	Usage:  "Print the current canonical head header as JSON",
	Action: headAction,
}

func headAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	writer, closeFn, err := openChain(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	head, err := writer.Canon().GetCanonicalHead()
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(head)
}

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Print canonical headers in [from, to] matching a bexpr filter",
	ArgsUsage: "<from> <to> [expr]",
	Action:    queryAction,
}

func queryAction(ctx *cli.Context) error {
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("usage: headerdb query <from> <to> [expr]")
	}
	from, err := strconv.ParseUint(ctx.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid 'from': %w", err)
	}
	to, err := strconv.ParseUint(ctx.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid 'to': %w", err)
	}
	var filter *query.Filter
	if expr := ctx.Args().Get(2); expr != "" {
		filter, err = query.NewFilter(expr)
		if err != nil {
			return err
		}
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	writer, closeFn, err := openChain(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	enc := json.NewEncoder(os.Stdout)
	for n := from; n <= to; n++ {
		header, err := writer.Canon().GetCanonicalHeaderByNumber(n)
		if err != nil {
			continue
		}
		if filter != nil {
			ok, err := filter.Match(header)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		if err := enc.Encode(header); err != nil {
			return err
		}
	}
	return nil
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Run the HTTP query/insert API server",
	Action: serveAction,
}

func serveAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("API server disabled: no HTTPAddr configured")
	}
	writer, closeFn, err := openChain(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var secret []byte
	if cfg.JWTSecretPath != "" {
		raw, err := os.ReadFile(cfg.JWTSecretPath)
		if err != nil {
			return fmt.Errorf("reading JWT secret: %w", err)
		}
		secret, err = api.DecodeJWTSecret(strings.TrimSpace(string(raw)))
		if err != nil {
			return err
		}
	}

	server := api.NewServer(writer, secret)
	addr := fmt.Sprintf("%s:%d", cfg.HTTPAddr, cfg.HTTPPort)
	gethlog.Info("Starting headerdb API server", "addr", addr)
	return http.ListenAndServe(addr, server.Handler(cfg.HTTPCorsDomains))
}

var memsizeCommand = &cli.Command{
	Name:   "memsize",
	Usage:  "Report in-memory size of the running process's header caches",
	Action: memsizeAction,
}

func memsizeAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	writer, closeFn, err := openChain(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	report := debugutil.Report(writer.Store(), writer.Canon())
	fmt.Println(report)
	return nil
}
