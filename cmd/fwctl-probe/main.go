// fwctl-probe: dump a node's DICE general/extension section
// table-of-contents and extension caps (spec.md §6 names this class of
// tool a thin decoder living outside the core). It opens a raw
// character device directly through pkg/transaction rather than going
// through an owner's event loop, matching the teacher's one-shot
// cmd/*/main.go tools that talk straight to a device and print a
// summary.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/herlein/fwctl/pkg/section"
	"github.com/herlein/fwctl/pkg/transaction"
)

func main() {
	device := pflag.StringP("device", "d", "/dev/fw1", "FireWire character device to probe")
	node := pflag.IntP("node", "n", 0, "node ID within the current bus generation")
	timeoutMS := pflag.IntP("timeout", "t", 100, "transaction timeout in milliseconds")
	extension := pflag.BoolP("extension", "e", false, "probe the DICE extension section instead of general")
	pflag.Parse()

	transactor, err := transaction.OpenCharDevice(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fwctl-probe: open %s: %v\n", *device, err)
		os.Exit(1)
	}
	defer transactor.Close()

	h := transaction.Handle{NodeID: uint16(*node)}
	timeout := time.Duration(*timeoutMS) * time.Millisecond

	base := section.DiceGeneralBase
	names := section.GeneralTOCEntries
	if *extension {
		base = section.DiceExtensionBase
		names = section.ExtensionTOCEntries
	}

	descs, err := section.ReadTOC(transactor, h, base, names, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fwctl-probe: read table of contents: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("base: 0x%012x\n", base)
	for _, d := range descs {
		fmt.Printf("  %-16s offset=0x%04x (q) size=%d (q) addr=0x%012x\n",
			d.Name, d.OffsetQuadlets, d.SizeQuadlets, d.Address(base))
	}

	if *extension {
		printCaps(transactor, h, descs, timeout)
	}
}

func printCaps(t transaction.Transactor, h transaction.Handle, descs []section.Descriptor, timeout time.Duration) {
	table := section.NewTable(section.DiceExtensionBase, descs)
	desc, ok := table.Get("caps")
	if !ok {
		return
	}
	buf := make([]byte, section.ExtensionCapsSize)
	if err := t.Read(h, desc.Address(section.DiceExtensionBase), buf, timeout); err != nil {
		fmt.Fprintf(os.Stderr, "fwctl-probe: read caps: %v\n", err)
		return
	}
	var caps section.ExtensionCaps
	if err := caps.Deserialize(buf); err != nil {
		fmt.Fprintf(os.Stderr, "fwctl-probe: decode caps: %v\n", err)
		return
	}
	fmt.Printf("caps: mixer.input_count=%d mixer.output_count=%d router.maximum_entry_count=%d\n",
		caps.Mixer.InputCount, caps.Mixer.OutputCount, caps.Router.MaximumEntryCount)
}
