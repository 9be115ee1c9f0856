// Package command parses the summarise command:
//
//	/ils-summarise [manual=true] <start> <end>
//
// The range is inclusive and must cover at least two entries.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/youssefsiam38/inlinesummary/types"
)

// Name is the command name without the leading slash.
const Name = "ils-summarise"

// ErrInvalidRange is returned when the parsed bounds do not form a valid selection.
var ErrInvalidRange = errors.New("invalid message range")

// Command is a parsed invocation.
type Command struct {
	// Selection holds the clamped bounds. A bound that was missing or not a
	// number is nil.
	Selection types.Selection

	// Manual inserts a manual summary instead of generating one.
	Manual bool
}

// Parse parses the command arguments against a live sequence of liveLen
// entries. Start is clamped to 0 and end to liveLen-1. Named arguments may
// appear anywhere; unknown ones are ignored. The returned Command carries the
// clamped bounds even when err is ErrInvalidRange.
func Parse(args string, liveLen int) (Command, error) {
	var (
		cmd        Command
		positional []string
	)
	for _, field := range strings.Fields(args) {
		key, value, named := strings.Cut(field, "=")
		if !named {
			positional = append(positional, field)
			continue
		}
		if strings.EqualFold(key, "manual") {
			cmd.Manual = strings.EqualFold(strings.TrimSpace(value), "true")
		}
	}

	if len(positional) > 0 {
		if n, ok := parseIndex(positional[0]); ok {
			n = max(0, n)
			cmd.Selection.Start = &n
		}
	}
	if len(positional) > 1 {
		if n, ok := parseIndex(positional[1]); ok {
			n = min(n, liveLen-1)
			cmd.Selection.End = &n
		}
	}

	if !cmd.Selection.IsValid() {
		return cmd, fmt.Errorf("%w: %s - %s", ErrInvalidRange,
			bound(cmd.Selection.Start), bound(cmd.Selection.End))
	}
	return cmd, nil
}

// Range returns the selected range. It is meaningful only for a Command
// returned without error.
func (c Command) Range() types.Range {
	r, _ := c.Selection.Range()
	return r
}

func parseIndex(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func bound(p *int) string {
	if p == nil {
		return "null"
	}
	return strconv.Itoa(*p)
}
