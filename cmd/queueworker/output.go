// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jecoz/queueworker/internal/config"
	"gopkg.in/yaml.v3"
)

// write encodes v to w. YAML output goes through JSON first so that
// json tags and marshalers apply to both formats.
func write(w io.Writer, format string, v interface{}) error {
	switch format {
	case config.FormatYAML:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var doc interface{}
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
}
