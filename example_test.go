package canplot_test

import (
	"fmt"

	"github.com/notnil/canplot"
)

func ExampleIngestor() {
	dec, err := canplot.NewDecoder(canplot.DefaultDecoderConfig())
	if err != nil {
		panic(err)
	}
	store := canplot.NewStore(2)
	in := canplot.NewIngestor(dec, store, canplot.IngestorConfig{})

	rows := [][]string{
		{"0", "Rx", "10", "0", "DataFrame", "201", "Standard", "8", "0", "Data|01 00 00 00 00 00 00 00"},
		{"1", "Rx", "11", "0", "DataFrame", "201", "Standard", "8", "0", "Data|01 FF FF 00 00 00 00 00"},
		{"2", "Rx", "12", "0", "DataFrame", "201", "Standard", "8", "0", "Data|02 00 00 00 00 00 00 00"},
		{"3", "Rx", "13"},
		{"4", "Rx", "14", "0", "DataFrame", "202", "Standard", "8", "0", "Data|01 80 00 00 00 00 00 00"},
	}
	rep, _ := in.Ingest(rows)
	fmt.Printf("appended=%d skipped=%d rejected=%d cursor=%d\n",
		rep.Appended, rep.Skipped, len(rep.Rejections), in.Cursor())

	for _, id := range store.ChannelIDs() {
		fmt.Print(canplot.ChannelLabel(id))
		for _, p := range store.Snapshot(id) {
			fmt.Printf(" (%d, %.4f)", p.Timestamp, p.Position)
		}
		fmt.Println()
	}
	// Output:
	// appended=3 skipped=1 rejected=1 cursor=5
	// ID 0x201 (16, -3.1416) (17, 3.1416)
	// ID 0x202 (20, 0.0000)
}
