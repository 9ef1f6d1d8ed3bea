package commands

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// readJSONArg decodes JSON from path, or stdin when path is "-".
func readJSONArg(path string, out any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return errors.Wrapf(json.NewDecoder(r).Decode(out), "decode %s", path)
}

// writeJSONArg encodes v to path, or stdout when path is "" or "-".
func writeJSONArg(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
