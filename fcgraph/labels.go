package fcgraph

import (
	"fmt"
	"strconv"
	"strings"
)

// UniqueLabel returns "<base> <n>" with the smallest n >= 1 not in used. A
// trailing " <n>" on label is treated as an earlier suffix and replaced, so
// duplicating "HTTP 1" yields "HTTP 2" rather than "HTTP 1 1".
func UniqueLabel(used map[string]struct{}, label string) string {
	base := label
	if i := strings.LastIndexByte(label, ' '); i > 0 {
		if _, err := strconv.Atoi(label[i+1:]); err == nil {
			base = label[:i]
		}
	}
	for n := 1; ; n++ {
		l := fmt.Sprintf("%s %d", base, n)
		if _, ok := used[l]; !ok {
			return l
		}
	}
}
