// Package bdf reads and writes Hypermesh .bdf set files, the exchange
// format the FEMFAT toolchain uses for named node and element sets. A file
// carries a CEND header, one SET statement per set listing labels and
// "lo THRU hi" spans, a $HMSET comment naming each set, and a BEGIN
// BULK / ENDDATA trailer.
package bdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatiguetools/matassign/internal/intset"
)

// Set type codes used in $HMSET records.
const (
	NodeSet    = 1
	ElementSet = 2
)

// itemsPerLine is the number of set items written before a continuation.
const itemsPerLine = 8

// ErrBadFormat is returned when parsed input does not follow the set file
// layout.
var ErrBadFormat = errors.New("malformed bdf set file")

// Write stores the named label sets in .bdf set format. Sets are written in
// name order with IDs assigned from 1, so identical input maps always
// produce byte-identical output. setType is NodeSet or ElementSet.
func Write(w io.Writer, sets map[string][]int, setType int) error {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "CEND")
	for i, name := range names {
		id := i + 1
		fmt.Fprintf(bw, "SET%5d = ", id)
		writeItems(bw, setItems(sets[name]))
		fmt.Fprintf(bw, "$HMSET %8d %8d %q\n", id, setType, name)
	}
	fmt.Fprintln(bw, "BEGIN BULK")
	fmt.Fprintln(bw, "ENDDATA")
	return bw.Flush()
}

// setItems renders labels as bdf set items: "lo THRU hi" for runs of three
// or more, adjacent pairs listed separately, singletons bare.
func setItems(labels []int) []string {
	var items []string
	for _, r := range intset.Compress(labels) {
		switch {
		case r.From == r.To:
			items = append(items, strconv.Itoa(r.From))
		case r.From+1 == r.To:
			items = append(items, strconv.Itoa(r.From), strconv.Itoa(r.To))
		default:
			items = append(items, fmt.Sprintf("%d THRU %d", r.From, r.To))
		}
	}
	return items
}

// writeItems emits comma-separated items, itemsPerLine per line, with a
// trailing comma marking continuation.
func writeItems(w io.Writer, items []string) {
	for start := 0; start < len(items); start += itemsPerLine {
		end := start + itemsPerLine
		last := end >= len(items)
		if last {
			end = len(items)
		}
		fmt.Fprint(w, strings.Join(items[start:end], ","))
		if last {
			fmt.Fprintln(w)
		} else {
			fmt.Fprintln(w, ",")
		}
	}
}

// Parse reads a .bdf set file back into named label sets. SET statements
// may span multiple lines; a line ending in a comma continues on the next.
// Set names come from the $HMSET records; a SET with no $HMSET keeps its
// numeric ID as the name. Labels are returned sorted ascending.
func Parse(r io.Reader) (map[string][]int, error) {
	sets := make(map[string][]int)  // by final name
	byID := make(map[string][]int)  // by set ID until named
	names := make(map[string]string)

	var curID string
	var pending strings.Builder

	flush := func() error {
		if curID == "" {
			return nil
		}
		labels, err := parseItems(pending.String())
		if err != nil {
			return err
		}
		byID[curID] = labels
		curID = ""
		pending.Reset()
		return nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || line == "CEND" || line == "BEGIN BULK" || line == "ENDDATA":
			if err := flush(); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, "$HMSET"):
			if err := flush(); err != nil {
				return nil, err
			}
			id, name, err := parseHMSet(line)
			if err != nil {
				return nil, err
			}
			names[id] = name

		case strings.HasPrefix(line, "SET"):
			if err := flush(); err != nil {
				return nil, err
			}
			rest := strings.TrimPrefix(line, "SET")
			id, items, found := strings.Cut(rest, "=")
			if !found {
				return nil, fmt.Errorf("%w: SET without '=': %q", ErrBadFormat, line)
			}
			curID = strings.TrimSpace(id)
			pending.WriteString(items)

		case curID != "":
			// Continuation of the current SET statement.
			pending.WriteString(line)

		default:
			return nil, fmt.Errorf("%w: unexpected line %q", ErrBadFormat, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	for id, labels := range byID {
		name, ok := names[id]
		if !ok {
			name = id
		}
		sets[name] = labels
	}
	return sets, nil
}

// parseItems expands a comma-separated item list, including THRU spans,
// into sorted labels.
func parseItems(s string) ([]int, error) {
	var labels []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if lo, hi, found := strings.Cut(item, "THRU"); found {
			from, err1 := strconv.Atoi(strings.TrimSpace(lo))
			to, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || from > to {
				return nil, fmt.Errorf("%w: bad THRU item %q", ErrBadFormat, item)
			}
			for v := from; v <= to; v++ {
				labels = append(labels, v)
			}
			continue
		}
		v, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("%w: bad item %q", ErrBadFormat, item)
		}
		labels = append(labels, v)
	}
	sort.Ints(labels)
	return labels, nil
}

// parseHMSet extracts the set ID and quoted name from a $HMSET record.
func parseHMSet(line string) (id, name string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", "", fmt.Errorf("%w: short $HMSET: %q", ErrBadFormat, line)
	}
	start := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if start < 0 || end <= start {
		return "", "", fmt.Errorf("%w: unquoted $HMSET name: %q", ErrBadFormat, line)
	}
	return fields[1], line[start+1 : end], nil
}
