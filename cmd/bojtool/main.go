// bojtool converts glTF and YAML scenes to BOJ v6 files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bojexport/internal/config"
	"github.com/Faultbox/bojexport/internal/importer"
	"github.com/Faultbox/bojexport/internal/logger"
	"github.com/Faultbox/bojexport/internal/texture"
	"github.com/Faultbox/bojexport/pkg/boj"
	"github.com/Faultbox/bojexport/pkg/scene"
	"github.com/Faultbox/bojexport/pkg/texname"
)

// errUsage reports a command line that was already explained on stderr.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	if err := run(command, os.Args[2:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

// run executes one command. Deferred cleanup inside commands runs before
// main decides the exit status.
func run(command string, args []string) error {
	switch command {
	case "export", "x":
		return cmdExport(args)
	case "dump":
		return cmdDump(args)
	case "info":
		return cmdInfo(args)
	case "config":
		return cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return errUsage
	}
}

func printUsage() {
	fmt.Println(`bojtool - BOJ v6 scene exporter

Usage:
  bojtool <command> [options]

Commands:
  export [options] <input> <output.boj>  Convert a .gltf/.glb/.yaml scene
  dump [-v] <file.boj>                   Show the contents of a BOJ file
  info [options] <input>                 Show scene statistics
  config [path]                          Write the effective config

Export options:
  -config <file>    Config file (default ./bojexport.yaml)
  -textures <dir>   Texture search directory, repeatable
  -archive <file>   GRF archive searched for textures, repeatable
  -atomic           Write through a temp file and rename
  -strict           Fail on missing textures
  -debug            Enable debug logging

Examples:
  bojtool export scene.glb out/scene.boj
  bojtool export -textures ./textures room.yaml room.boj
  bojtool dump -v room.boj`)
}

// setup loads config and initializes logging for a command.
func setup(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, errors.Wrap(err, "initializing logger")
	}
	return cfg, nil
}

// newStore builds the texture store. Archives opened before a failure are
// closed again; on success the caller closes the store.
func newStore(cfg *config.Config) (*texture.Store, error) {
	store := texture.NewStore(cfg.Textures.SearchPaths, logger.Named("texture"))
	store.Overwrite = cfg.Textures.Overwrite
	store.Strict = cfg.Textures.Strict
	store.MagentaKey = cfg.Textures.MagentaKey

	for _, path := range cfg.Textures.Archives {
		a, err := texture.OpenArchive(path)
		if err != nil {
			store.Close()
			return nil, err
		}
		logger.Debug("archive opened", zap.String("path", path), zap.Int("files", a.Len()))
		store.Archives = append(store.Archives, a)
	}
	return store, nil
}

func loadScene(cfg *config.Config, store *texture.Store, path string) (scene.Scene, error) {
	s, err := importer.Load(path, importer.Options{
		Textures:       store,
		PrimitiveCells: cfg.Import.PrimitiveCells,
		Log:            logger.Named("import"),
	})
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		logger.Warn("scene has no meshes", zap.String("input", path))
	}
	if cfg.Export.Validate {
		if err := s.Validate(); err != nil {
			return nil, errors.Wrapf(err, "validating %s", filepath.Base(path))
		}
	}
	return s, nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: bojtool export [options] <input> <output.boj>")
		return errUsage
	}
	input, output := fs.Arg(0), fs.Arg(1)

	cfg, err := setup(flags)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := loadScene(cfg, store, input)
	if err != nil {
		return err
	}

	emitter := &boj.Emitter{Log: logger.Named("boj")}
	if cfg.Export.AtomicWrite {
		emitter.WriteFile = boj.WriteFileAtomic
	}
	if err := emitter.WriteObjectAndTextures(s, output, store.Save); err != nil {
		return err
	}

	logger.Info("export complete",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("meshes", len(s)),
		zap.Int("textures", len(s.Textures())))
	return nil
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Dump every field")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bojtool dump [-v] <file.boj>")
		return errUsage
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := boj.Decode(data)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", fs.Arg(0))
	}

	if *verbose {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		cfg.Fdump(os.Stdout, s)
		return nil
	}

	fmt.Printf("File:    %s\n", fs.Arg(0))
	fmt.Printf("Version: %d\n", boj.Version)
	fmt.Printf("Size:    %d bytes\n", len(data))
	fmt.Printf("Meshes:  %d\n", len(s))
	fmt.Println()
	for i := range s {
		m := &s[i]
		fmt.Printf("  [%d] %-20s %6d vertices %6d triangles %d groups\n",
			i, m.Material.Name, len(m.Vertices), m.TriangleCount(), len(m.Indices))
		for _, c := range m.Comments {
			fmt.Printf("       # %s\n", c)
		}
	}

	textures := s.Textures()
	if len(textures) > 0 {
		fmt.Println()
		fmt.Println("Textures:")
		for _, id := range textures {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bojtool info [options] <input>")
		return errUsage
	}

	cfg, err := setup(flags)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := loadScene(cfg, store, fs.Arg(0))
	if err != nil {
		return err
	}
	size, err := boj.Measure(s)
	if err != nil {
		return err
	}

	triangles := 0
	for i := range s {
		triangles += s[i].TriangleCount()
	}

	fmt.Printf("Scene:     %s\n", fs.Arg(0))
	fmt.Printf("Meshes:    %d\n", len(s))
	fmt.Printf("Vertices:  %d\n", s.VertexCount())
	fmt.Printf("Triangles: %d\n", triangles)
	fmt.Printf("BOJ size:  %.2f KB\n", float64(size)/1024)

	textures := s.Textures()
	fmt.Printf("Textures:  %d\n", len(textures))
	for _, id := range textures {
		fmt.Printf("  %-30s -> %s\n", id, texname.Clean(id)+boj.TextureExt)
	}
	return nil
}

func cmdConfig(args []string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 0 {
		path = args[0]
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}
