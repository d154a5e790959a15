package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/dedis/privtally/committee"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// readLine returns the first line of the file at path, or of standard
// input when path is empty or "-".
func readLine(path string) (string, error) {
	in := os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", xerrors.Errorf("opening %s: %v", path, err)
		}
		defer f.Close()
		in = f
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", xerrors.Errorf("reading input: %v", err)
		}
		return "", xerrors.New("input is empty")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// readSecretKey loads and decodes the tagged member secret key file.
func readSecretKey(path string) (kyber.Scalar, error) {
	if path == "" {
		return nil, xerrors.New("--key is required")
	}
	line, err := committee.ReadKeyFile(path)
	if err != nil {
		return nil, err
	}
	secret, err := committee.DecodeSecretShare(line)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return secret, nil
}
