package main

// See doc.go for documentation

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scanmap/keytable"
	"github.com/grailbio/scanmap/solver"
)

var (
	laneWidth  = flag.Int("lane-width", 0, "Keys compared per block: 16, 32, or 64 (0 = platform default)")
	maxScanPos = flag.Int("max-scan-pos", 0, "Highest byte position the plan may probe, inclusive (0 = unbounded)")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	var keys [][]byte
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		keys = append(keys, append([]byte{}, scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("reading keys: %v", err)
	}

	table, err := keytable.New(keys)
	if err != nil {
		log.Fatalf("loading keys: %v", err)
	}
	plan, err := solver.Solve(table, solver.Opts{
		LaneWidth: *laneWidth,
		MaxPos:    *maxScanPos,
	})
	if err != nil {
		log.Fatalf("building plan: %v", err)
	}
	if err := writePlan(os.Stdout, table, plan); err != nil {
		log.Fatalf("writing plan: %v", err)
	}
	log.Printf("%d keys, %d scans, %d block(s) of %d lanes",
		table.Len(), plan.NumScans(), plan.NumBlocks(), plan.LaneWidth())
}

// writePlan dumps one header row naming the scanned positions, then
// one row per key: candidate bit, key, and the key's reference lane at
// each scanned position (past-end elements print as +<distance>).
func writePlan(w io.Writer, table *keytable.Table, plan *solver.Plan) error {
	out := tsv.NewWriter(w)
	header := "BIT\tKEY"
	for j := 0; j < plan.NumScans(); j++ {
		header += fmt.Sprintf("\tPOS%d", plan.Position(j))
	}
	out.WriteString(header)
	if err := out.EndLine(); err != nil {
		return err
	}
	for i := 0; i < table.Len(); i++ {
		out.WriteUint32(uint32(i))
		out.WriteString(fmt.Sprintf("%q", table.Key(i)))
		for j := 0; j < plan.NumScans(); j++ {
			out.WriteString(laneString(plan.ReferenceVector(j)[i]))
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

func laneString(lane uint16) string {
	if lane < keytable.PastEnd {
		return fmt.Sprintf("%q", byte(lane))
	}
	return fmt.Sprintf("+%d", lane-keytable.PastEnd)
}
