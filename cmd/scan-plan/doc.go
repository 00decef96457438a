/*Command scan-plan builds the lookup plan for a list of keys and
  dumps it as a TSV.  Keys arrive on stdin, one per line; the dump
  (scanned positions, per-key reference lanes, candidate bits) is
  written to stdout.  The summary line on stderr reports the key count
  and the number of scans.

  Usage: scan-plan --lane-width=16 < keys.txt > plan.tsv
*/
package main
