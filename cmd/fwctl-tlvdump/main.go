// fwctl-tlvdump: decode or re-encode a raw u32 array the way fwctl's
// quadlet-based parameter codecs see it (spec.md §6 CLI surface). This
// tool has no access to a node; it exists only to verify codecs against
// hand-fed data, the way the retrieved alsa-ctl-tlv-codec "tlv-decode"
// tool verifies ALSA TLV blobs against the same four display modes.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

func main() {
	mode := pflag.StringP("mode", "m", "structure", `display mode: "structure", "literal", "raw", or "macro"`)
	help := pflag.BoolP("help", "h", false, "display usage")
	pflag.Parse()

	if *help || pflag.NArg() == 0 {
		printUsage()
		if *help {
			return
		}
		os.Exit(1)
	}

	words, err := interpretArgs(pflag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "fwctl-tlvdump:", err)
		os.Exit(1)
	}

	switch *mode {
	case "structure":
		printStructure(words)
	case "literal":
		printLiteral(words)
	case "raw":
		if err := printRaw(words); err != nil {
			fmt.Fprintln(os.Stderr, "fwctl-tlvdump:", err)
			os.Exit(1)
		}
	case "macro":
		printMacro(words)
	default:
		fmt.Fprintf(os.Stderr, "fwctl-tlvdump: invalid mode %q\n", *mode)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  fwctl-tlvdump --mode=MODE DATA... | -

  MODE:    structure | literal | raw | macro
  DATA:    decimal or 0x-prefixed hexadecimal u32 values
  "-":     read DATA as native-endian binary from stdin (multiple of 4 bytes)`)
}

// interpretArgs reproduces the two input paths named in spec.md §6:
// "-" reads native-endian binary from stdin, otherwise every argument
// is a decimal or 0x-prefixed hexadecimal u32.
func interpretArgs(args []string) ([]uint32, error) {
	if len(args) == 1 && args[0] == "-" {
		return interpretStdin()
	}
	out := make([]uint32, 0, len(args))
	for _, arg := range args {
		v, err := parseWord(arg)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseWord(arg string) (uint32, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		v, err := strconv.ParseUint(arg[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(arg, 10, 32)
	return uint32(v), err
}

func interpretStdin() ([]uint32, error) {
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("nothing available on stdin")
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("stdin length %d is not a multiple of 4", len(buf))
	}
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = binary.NativeEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out, nil
}

func printStructure(words []uint32) {
	for i, w := range words {
		fmt.Printf("[%d] 0x%08x (%d)\n", i, w, int32(w))
	}
}

func printLiteral(words []uint32) {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	fmt.Println(strings.Join(parts, " "))
}

func printRaw(words []uint32) error {
	out := os.Stdout
	buf := make([]byte, 4)
	for _, w := range words {
		binary.NativeEndian.PutUint32(buf, w)
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func printMacro(words []uint32) {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("0x%08x", w)
	}
	fmt.Printf("[]uint32{%s}\n", strings.Join(parts, ", "))
}
