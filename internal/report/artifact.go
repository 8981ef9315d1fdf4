// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// errorKey holds the failure message of a file that could not be analysed.
const errorKey = "error"

// artifactOrder is the key order of one result in the artifact. page_count
// comes last.
var artifactOrder = []string{
	types.CheckContainsImages,
	types.CheckMultiColumnFormat,
	types.CheckAspectRatioVariations,
	types.CheckMathematicalNotation,
	types.CheckEmbeddedFonts,
	types.CheckHyperlinks,
	types.CheckForms,
	types.CheckCharts,
	types.CheckTables,
	types.CheckMultiPageTables,
	types.CheckTableContinuations,
	types.CheckNestedTables,
	types.CheckNestedColumns,
	types.CheckScannedPDF,
	types.CheckScannedPages,
	types.CheckPageCount,
}

type field struct {
	key   string
	value any
}

// resultFields lists the artifact fields of a result in order. Page lists
// covering every page become "All pages".
func resultFields(r *types.AnalysisResult) []field {
	n := *r
	n.Normalize()

	fields := make([]field, 0, len(artifactOrder))
	for _, key := range artifactOrder {
		var v any
		switch key {
		case types.CheckPageCount:
			v = n.PageCount
		case types.CheckScannedPDF:
			v = n.ScannedPDF
		case types.CheckMultiPageTables:
			v = n.MultiPageTables
		case types.CheckAspectRatioVariations:
			v = n.AspectRatioVariations
		default:
			pages := *n.PageList(key)
			if len(pages) > 0 && coversAll(uniqueSorted(pages), n.PageCount) {
				v = AllPages
			} else {
				v = pages
			}
		}
		fields = append(fields, field{key: key, value: v})
	}
	return fields
}

func entryFields(e types.BundleEntry) []field {
	if e.Failed() {
		return []field{{key: errorKey, value: e.Err.Error()}}
	}
	return resultFields(e.Result)
}

// MarshalJSON renders the bundle as a JSON object keyed by path in bundle
// order, indented with four spaces.
func MarshalJSON(bundle *types.ReportBundle) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range bundle.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, e.Path); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, f := range entryFields(e) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, f.key); err != nil {
				return nil, err
			}
			data, err := json.Marshal(f.value)
			if err != nil {
				return nil, fmt.Errorf("marshaling %s of %s: %w", f.key, e.Path, err)
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, fmt.Errorf("indenting JSON: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshaling key %q: %w", key, err)
	}
	buf.Write(data)
	buf.WriteByte(':')
	return nil
}

// MarshalYAML renders the bundle as a YAML mapping keyed by path in bundle order.
func MarshalYAML(bundle *types.ReportBundle) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range bundle.Entries() {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range entryFields(e) {
			value := &yaml.Node{}
			if err := value.Encode(f.value); err != nil {
				return nil, fmt.Errorf("marshaling %s of %s: %w", f.key, e.Path, err)
			}
			entry.Content = append(entry.Content, scalar(f.key), value)
		}
		root.Content = append(root.Content, scalar(e.Path), entry)
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Marshal renders the bundle in the given format.
func Marshal(bundle *types.ReportBundle, format types.ArtifactFormat) ([]byte, error) {
	switch format {
	case types.FormatJSON, "":
		return MarshalJSON(bundle)
	case types.FormatYAML:
		return MarshalYAML(bundle)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// WriteFile writes the bundle artifact to path.
func WriteFile(path string, bundle *types.ReportBundle, format types.ArtifactFormat) error {
	data, err := Marshal(bundle, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a JSON artifact back into a bundle, expanding "All pages"
// to the full page list.
func LoadJSON(r io.Reader) (*types.ReportBundle, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	bundle := types.NewReportBundle()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading artifact: %w", err)
		}
		path, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("reading artifact: unexpected token %v", tok)
		}

		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("reading entry %s: %w", path, err)
		}

		if msg, ok := raw[errorKey]; ok {
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, fmt.Errorf("reading error of %s: %w", path, err)
			}
			bundle.AddFailure(path, errors.New(s))
			continue
		}

		result, err := decodeResult(raw)
		if err != nil {
			return nil, fmt.Errorf("reading entry %s: %w", path, err)
		}
		bundle.Add(path, result)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return bundle, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("reading artifact: expected %v, got %v", want, tok)
	}
	return nil
}

func decodeResult(raw map[string]json.RawMessage) (*types.AnalysisResult, error) {
	r := &types.AnalysisResult{}
	if err := decodeField(raw, types.CheckPageCount, &r.PageCount); err != nil {
		return nil, err
	}
	if err := decodeField(raw, types.CheckScannedPDF, &r.ScannedPDF); err != nil {
		return nil, err
	}
	if err := decodeField(raw, types.CheckMultiPageTables, &r.MultiPageTables); err != nil {
		return nil, err
	}
	if err := decodeField(raw, types.CheckAspectRatioVariations, &r.AspectRatioVariations); err != nil {
		return nil, err
	}

	for _, c := range r.PageChecks() {
		data, ok := raw[c.Name]
		if !ok {
			continue
		}
		pages, err := decodePages(data, r.PageCount)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", c.Name, err)
		}
		*r.PageList(c.Name) = pages
	}

	r.Normalize()
	return r, nil
}

func decodeField(raw map[string]json.RawMessage, key string, dst any) error {
	data, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// decodePages accepts a page list or the "All pages" marker.
func decodePages(data json.RawMessage, total int) ([]int, error) {
	var marker string
	if err := json.Unmarshal(data, &marker); err == nil {
		if marker != AllPages {
			return nil, fmt.Errorf("unexpected value %q", marker)
		}
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}
