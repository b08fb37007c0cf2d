package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/image"
	"github.com/typeforge/meta-runtime/validate"
)

func main() {
	var (
		imageFile   = flag.String("image", "", "Path to address-space snapshot file")
		list        = flag.Bool("list", false, "List symbols and exit")
		dumpTarget  = flag.String("dump", "", "Symbol name or hex address of a metadata record to dump")
		extraSize   = flag.Uint64("extra", 0, "Trailing data size to include in the dump")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *imageFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: metadump -image <file> -list")
		fmt.Fprintln(os.Stderr, "       metadump -image <file> -dump <symbol|0xaddr> [-extra n]")
		fmt.Fprintln(os.Stderr, "       metadump -image <file> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*imageFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*imageFile, *dumpTarget, *extraSize, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(imageFile, dumpTarget string, extraSize uint64, listOnly bool) error {
	snap, err := loadSnapshot(imageFile)
	if err != nil {
		return err
	}

	symbols := snap.Symbols()
	regions := snap.Regions()
	fmt.Printf("Image: %s\n", imageFile)
	fmt.Printf("Library: %s\n", snap.Library)
	fmt.Printf("Regions: %d\n", len(regions))
	fmt.Printf("Symbols: %d\n", len(symbols))

	if listOnly || dumpTarget == "" {
		fmt.Printf("\nSymbols:\n")
		for _, sym := range symbols {
			fmt.Printf("  %#012x  %6d  %s\n", uint64(sym.Addr), sym.Size, sym.Name)
		}
		return nil
	}

	addr, err := resolveTarget(snap, dumpTarget)
	if err != nil {
		return err
	}

	dumper := &validate.Dumper{
		Mem:     snap,
		Symbols: snap,
		Print: func(format string, args ...any) {
			fmt.Printf(format, args...)
			fmt.Println()
		},
	}
	return dumper.DumpMetadata(metaruntime.Buffer{Addr: addr}, extraSize)
}

func loadSnapshot(path string) (*image.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	snap, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return snap, nil
}

// resolveTarget accepts a symbol name or a hex/decimal address.
func resolveTarget(snap *image.Snapshot, target string) (metaruntime.Address, error) {
	if strings.HasPrefix(target, "0x") || strings.HasPrefix(target, "0X") {
		v, err := strconv.ParseUint(target[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("bad address %q: %w", target, err)
		}
		return metaruntime.Address(v), nil
	}
	if buf, err := snap.SymbolPointer(target); err == nil {
		return buf.Addr, nil
	}
	v, err := strconv.ParseUint(target, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("no symbol %q in image", target)
	}
	return metaruntime.Address(v), nil
}
