package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/mash-protocol/quickreset/internal/config"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/reboot"
)

type options struct {
	ConfigFile string
	Backend    string
	Storage    string
	Namespace  string
	CounterKey string
	Hex        bool
	U32        bool
}

func (o *options) register(fs *flag.FlagSet) {
	def := config.Default()
	fs.StringVar(&o.ConfigFile, "config", "", "Configuration file path (YAML); storage flags override it")
	fs.StringVar(&o.Backend, "backend", "", "Storage backend (default "+def.Storage.Backend+")")
	fs.StringVar(&o.Storage, "storage", "", "Storage file or directory (default "+def.Storage.Path+")")
	fs.StringVar(&o.Namespace, "namespace", "", "Storage namespace (default "+def.Storage.Namespace+")")
	fs.StringVar(&o.CounterKey, "counter-key", "", "Counter key (default "+def.Keys.Counter+")")
	fs.BoolVar(&o.Hex, "hex", false, "Print and parse values as hex")
	fs.BoolVar(&o.U32, "u32", false, "Parse set values as a 4-byte little-endian integer")
}

// storage resolves the storage settings from the config file and flags.
func (o options) storage() (config.StorageConfig, string, error) {
	cfg := config.Default()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(o.ConfigFile); err != nil {
			return config.StorageConfig{}, "", err
		}
	}
	if o.Backend != "" {
		cfg.Storage.Backend = o.Backend
	}
	if o.Storage != "" {
		cfg.Storage.Path = o.Storage
	}
	if o.Namespace != "" {
		cfg.Storage.Namespace = o.Namespace
	}
	if o.CounterKey != "" {
		cfg.Keys.Counter = o.CounterKey
	}
	return cfg.Storage, cfg.Keys.Counter, nil
}

// execute runs one command against the configured store.
func execute(o options, args []string, w io.Writer) error {
	sc, counterKey, err := o.storage()
	if err != nil {
		return err
	}
	backend, err := nvs.NewBackend(sc.Backend, sc.Path)
	if err != nil {
		return err
	}
	store := nvs.NewStore(backend, sc.Namespace)
	defer store.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		if len(rest) != 1 {
			return errors.New("usage: get <key>")
		}
		val, err := store.Get(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, o.format(val))
	case "set":
		if len(rest) != 2 {
			return errors.New("usage: set <key> <value>")
		}
		val, err := o.parse(rest[1])
		if err != nil {
			return err
		}
		return store.Set(rest[0], val)
	case "del":
		if len(rest) != 1 {
			return errors.New("usage: del <key>")
		}
		return store.Delete(rest[0])
	case "counter":
		val, err := store.Get(counterKey)
		if errors.Is(err, nvs.ErrNotFound) {
			fmt.Fprintln(w, 0)
			return nil
		}
		if err != nil {
			return err
		}
		n, ok := reboot.DecodeCount(val)
		if !ok {
			return fmt.Errorf("malformed counter: %s", hex.EncodeToString(val))
		}
		fmt.Fprintln(w, n)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func (o options) format(val []byte) string {
	if o.Hex {
		return hex.EncodeToString(val)
	}
	return string(val)
}

func (o options) parse(s string) ([]byte, error) {
	switch {
	case o.U32:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid u32 value: %w", err)
		}
		return reboot.EncodeCount(uint32(n)), nil
	case o.Hex:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex value: %w", err)
		}
		return b, nil
	default:
		return []byte(s), nil
	}
}
