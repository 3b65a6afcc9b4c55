package fragment

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	domfrag "github.com/scholia-dev/scholia/internal/domain/fragment"
)

// Hash field names shared by the index schema and the read/write paths.
const (
	fieldText         = "text"
	fieldTitle        = "title"
	fieldPaperID      = "paper_id"
	fieldArxivID      = "arxiv_id"
	fieldSection      = "section"
	fieldFragmentType = "fragment_type"
	fieldCategories   = "categories"
	fieldPublishedTS  = "published_ts"
	fieldVector       = "vector"
)

// fragmentToHash flattens a fragment into hash fields for HSET.
func fragmentToHash(f domfrag.Fragment) map[string]string {
	fields := map[string]string{
		fieldText:         f.Text(),
		fieldTitle:        f.Title(),
		fieldPaperID:      f.PaperID(),
		fieldArxivID:      f.ArxivID(),
		fieldSection:      f.Section(),
		fieldFragmentType: f.FragmentType(),
		fieldCategories:   strings.Join(f.Categories(), ","),
	}
	if !f.Published().IsZero() {
		fields[fieldPublishedTS] = strconv.FormatInt(f.Published().Unix(), 10)
	}
	if v := f.Vector(); len(v) > 0 {
		fields[fieldVector] = string(vectorToBytes(v))
	}
	return fields
}

// hashToFragment rebuilds a fragment from hash fields returned by FT.SEARCH.
// The vector is never read back.
func hashToFragment(id string, fields map[string]string) domfrag.Fragment {
	var categories []string
	if raw := fields[fieldCategories]; raw != "" {
		categories = strings.Split(raw, ",")
	}

	var published time.Time
	if raw := fields[fieldPublishedTS]; raw != "" {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			published = time.Unix(ts, 0).UTC()
		}
	}

	return domfrag.New(
		id,
		fields[fieldPaperID],
		fields[fieldArxivID],
		fields[fieldTitle],
		fields[fieldText],
		fields[fieldSection],
		fields[fieldFragmentType],
		categories,
		published,
		nil,
	)
}

// vectorToBytes serializes a []float32 as little-endian bytes for the
// HNSW vector field.
func vectorToBytes(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}
