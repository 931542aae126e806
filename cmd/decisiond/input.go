package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// loadCandidates reads a JSON array of candidates from path, or stdin for "-".
func loadCandidates(path string, stdin io.Reader) ([]*release.Candidate, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var candidates []*release.Candidate
	if err := json.NewDecoder(r).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("decoding candidates: %w", err)
	}
	for i, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("candidate %d is null", i)
		}
	}
	return candidates, nil
}
