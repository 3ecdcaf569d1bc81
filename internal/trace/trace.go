// Package trace parses a Twitter cache trace CSV into operations for replay
// against a KVSSD; the replay itself is done by the caller (spec.md
// §6 "Trace replay (external)": "comma-separated ts,key,klen,vlen,client_id,
// op,ttl per line; op in {get,gets}->get, {set,add,replace}->put,
// {delete}->delete; other ops are skipped"). Grounded on
// original_source/src/workload.py's _parse_trace_lines, generalized from a
// Python generator to a Go encoding/csv reader.
package trace

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ftlsim/kvssd/internal/workload"
)

// Load reads up to maxOps operations (0 = unlimited) from a Twitter cache
// trace CSV. Lines with fewer than 7 fields are skipped, matching the
// original's tolerant parser. zstd-compressed traces are not supported:
// no compression library appears anywhere in the dependency corpus this
// module draws from, so decompression is left to the caller (e.g. piping
// through an external zstd binary before Load).
func Load(r io.Reader, maxOps int) ([]workload.Operation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var ops []workload.Operation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "trace: reading record")
		}
		if len(record) < 7 {
			continue
		}

		op, ok := parseRecord(record)
		if !ok {
			continue
		}
		ops = append(ops, op)

		if maxOps > 0 && len(ops) >= maxOps {
			break
		}
	}
	return ops, nil
}

func parseRecord(record []string) (workload.Operation, bool) {
	key := strings.TrimSpace(record[1])
	keySize, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return workload.Operation{}, false
	}
	valueSize, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return workload.Operation{}, false
	}
	op := strings.ToLower(strings.TrimSpace(record[5]))

	switch op {
	case "get", "gets":
		return workload.Operation{Type: workload.Get, Key: []byte(key), KeySize: keySize}, true
	case "set", "add", "replace":
		return workload.Operation{Type: workload.Put, Key: []byte(key), KeySize: keySize, ValueSize: valueSize}, true
	case "delete":
		return workload.Operation{Type: workload.Delete, Key: []byte(key), KeySize: keySize}, true
	default:
		return workload.Operation{}, false
	}
}
