package env

import (
	"os"
	"strconv"
)

func Debug() bool {
	return os.Getenv("DEBUG") != ""
}

// Timeout returns FLOWCANVAS_TIMEOUT in seconds if it is set to a valid integer.
func Timeout() (int, bool) {
	if s := os.Getenv("FLOWCANVAS_TIMEOUT"); s != "" {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return int(i), true
		}
	}
	return -1, false
}
