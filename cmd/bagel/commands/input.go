package commands

import (
	"encoding/json"
	"fmt"

	"github.com/bageldb/bagel-go"
	"github.com/bageldb/bagel-go/internal/domain/validate"
)

// Flag values are JSON. A single id, document, vector or metadata object is
// accepted wherever a list is.

func decodeJSONFlag(name, raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("--%s: invalid JSON: %w", name, err)
	}
	return validate.ToMany(v), nil
}

func parseIDs(raw string) (bagel.IDInput, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decodeJSONFlag("ids", raw)
	if err != nil {
		return nil, err
	}
	ids, err := validate.IDsAny(v)
	if err != nil {
		return nil, fmt.Errorf("--ids: %w", err)
	}
	return bagel.IDBatch(ids), nil
}

func parseEmbeddings(name, raw string) (bagel.VectorInput, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decodeJSONFlag(name, raw)
	if err != nil {
		return nil, err
	}
	vecs, err := validate.EmbeddingsAny(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return bagel.VectorBatch(vecs), nil
}

func parseMetadatas(raw string) (bagel.MetadataInput, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decodeJSONFlag("metadatas", raw)
	if err != nil {
		return nil, err
	}
	var items []any
	switch t := v.(type) {
	case []map[string]any:
		for _, m := range t {
			items = append(items, m)
		}
	case []any:
		items = t
	default:
		return nil, fmt.Errorf("--metadatas: expected an object or a list of objects, got %T", v)
	}
	out := make(bagel.MetadataBatch, len(items))
	for i, item := range items {
		md, err := validate.MetadataAny(item)
		if err != nil {
			return nil, fmt.Errorf("--metadatas[%d]: %w", i, err)
		}
		out[i] = md
	}
	return out, nil
}

func parseDocuments(name, raw string) (bagel.DocumentInput, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decodeJSONFlag(name, raw)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []string:
		return bagel.DocumentBatch(t), nil
	case []any:
		docs := make(bagel.DocumentBatch, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("--%s[%d]: expected a string, got %T", name, i, e)
			}
			docs[i] = s
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("--%s: expected a string or a list of strings, got %T", name, v)
	}
}

func parseMetadata(raw string) (bagel.Metadata, error) {
	if raw == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("--metadata: invalid JSON: %w", err)
	}
	md, err := validate.MetadataAny(v)
	if err != nil {
		return nil, fmt.Errorf("--metadata: %w", err)
	}
	return md, nil
}

func parseWhere(raw string) (bagel.Where, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("--where: invalid JSON object: %w", err)
	}
	return bagel.ParseWhere(m)
}

func parseWhereDocument(raw string) (bagel.WhereDocument, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("--where-document: invalid JSON object: %w", err)
	}
	return bagel.ParseWhereDocument(m)
}

func parseInclude(values []string) []bagel.Include {
	if len(values) == 0 {
		return nil
	}
	out := make([]bagel.Include, len(values))
	for i, v := range values {
		out[i] = bagel.Include(v)
	}
	return out
}
