package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wonny/sycamore/backend/pkg/config"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// readRecord decodes one JSON object from path ("-" = stdin)
func readRecord(path string, stdin io.Reader) (map[string]interface{}, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var record map[string]interface{}
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("input must be a JSON object")
	}
	return record, nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// cliEnv loads config and a logger for one-shot commands.
// CLI 출력이 로그와 섞이지 않도록 --verbose 없으면 warn 이상만
func cliEnv() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	return cfg, logger.NewWithWriter(cfg, os.Stderr), nil
}
