package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides for a single command.
type Flags struct {
	Config   string
	Debug    bool
	Atomic   bool
	Strict   bool
	Textures stringList
	Archives stringList
}

// RegisterFlags binds the shared exporter flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Atomic, "atomic", false, "Write output through a temp file and rename")
	fs.BoolVar(&f.Strict, "strict", false, "Fail on missing textures")
	fs.Var(&f.Textures, "textures", "Texture search directory (repeatable)")
	fs.Var(&f.Archives, "archive", "GRF archive searched for textures (repeatable)")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Atomic {
		cfg.Export.AtomicWrite = true
	}
	if f.Strict {
		cfg.Textures.Strict = true
	}
	if len(f.Textures) > 0 {
		cfg.Textures.SearchPaths = append([]string(nil), f.Textures...)
	}
	if len(f.Archives) > 0 {
		cfg.Textures.Archives = append(cfg.Textures.Archives, f.Archives...)
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
