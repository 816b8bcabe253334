package main

import (
	"fmt"

	"lobkernel/internal/gen"
	"lobkernel/internal/replay"
)

func parseReplayFormat(s string) (replay.Format, error) {
	switch s {
	case "jsonl", "":
		return replay.FormatText, nil
	case "bin":
		return replay.FormatBinary, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want jsonl or bin)", s)
	}
}

func parseGenFormat(s string) (gen.Format, error) {
	switch s {
	case "jsonl", "":
		return gen.FormatText, nil
	case "bin":
		return gen.FormatBinary, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want jsonl or bin)", s)
	}
}
