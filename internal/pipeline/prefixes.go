package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/slovnyk/internal/config"
)

const (
	alphabet     = "abcdefghijklmnopqrstuvwxyz"
	commonFirst  = "stpbcmdrhlfgwyvnkjqxz"
	commonSecond = "aeiouhrlnstmdcpgbykvwfjqxz"
)

// Prefixes returns the ordered prefix list for a generation mode. Custom
// mode uses the explicit list, lower-cased and deduplicated in order.
func Prefixes(mode string, custom []string) ([]string, error) {
	switch mode {
	case config.ModeTwoLetter:
		return twoLetter(), nil
	case config.ModeOneLetter:
		out := make([]string, 0, len(alphabet))
		for _, r := range alphabet {
			out = append(out, string(r))
		}
		return out, nil
	case config.ModeCustom:
		seen := make(map[string]struct{}, len(custom))
		var out []string
		for _, p := range custom {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: %q requires at least one prefix", config.ErrUnsupportedMode, mode)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedMode, mode)
	}
}

// twoLetter lists common letter pairs first, then every remaining pair of
// the alphabet in sorted order.
func twoLetter() []string {
	out := make([]string, 0, len(alphabet)*len(alphabet))
	seen := make(map[string]struct{}, cap(out))
	for _, a := range commonFirst {
		for _, b := range commonSecond {
			p := string(a) + string(b)
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	var rest []string
	for _, a := range alphabet {
		for _, b := range alphabet {
			p := string(a) + string(b)
			if _, ok := seen[p]; !ok {
				rest = append(rest, p)
			}
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
