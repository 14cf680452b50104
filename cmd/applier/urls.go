package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// collectURLs merges URLs from flags, arguments and a file with one URL per
// line. Blank lines and # comments in the file are skipped.
func collectURLs(path string, lists ...[]string) ([]string, error) {
	var urls []string
	for _, list := range lists {
		urls = append(urls, list...)
	}
	if path == "" {
		return urls, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
