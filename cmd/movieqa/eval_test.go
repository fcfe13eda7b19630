package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieqa/internal/rag/retriever"
)

func TestRunEvalLexical(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "csv"), 0o755))
	csv := "title,year,director,description\n" +
		"Titanic,1997,James Cameron,A ship hits an iceberg\n" +
		"Alien,1979,Ridley Scott,A crew meets a creature in space\n" +
		"Heat,1995,Michael Mann,A detective hunts a thief\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "csv", "IMDb_movies.csv"), []byte(csv), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "embeddings.json"), []byte("[[1,0,0],[0,1,0],[0,0,1]]"), 0o644))
	cases := filepath.Join(root, "cases.json")
	require.NoError(t, os.WriteFile(cases, []byte(`[
		{"query": "iceberg ship", "titles": ["Titanic"]},
		{"query": "creature in space", "titles": ["alien"]},
		{"query": "submarine", "titles": ["The Abyss"]}
	]`), 0o644))

	t.Setenv("HOME", root)
	t.Setenv("MOVIEQA_CORPUS_SNAPSHOT", "")
	t.Setenv("NEXT_PUBLIC_BASE_URL", root)
	t.Setenv("MOVIEQA_NEXT_PUBLIC_BASE_URL", root)

	evalCases, evalMode, evalJSON = cases, "lexical", true
	t.Cleanup(func() { evalCases, evalMode, evalJSON = "cases.json", "lexical", false })
	var out bytes.Buffer
	evalCmd.SetOut(&out)
	t.Cleanup(func() { evalCmd.SetOut(nil) })

	require.NoError(t, runEval(evalCmd, nil))
	var rep retriever.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 3, rep.Cases)
	assert.InDelta(t, 2.0/3, rep.HitAt5, 1e-9)
	assert.Equal(t, []string{"submarine"}, rep.Misses)
}

func TestRunEvalRejectsUnknownMode(t *testing.T) {
	cases := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(cases, []byte(`[{"query":"q","titles":["x"]}]`), 0o644))
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NEXT_PUBLIC_BASE_URL", t.TempDir())

	evalCases, evalMode = cases, "fuzzy"
	t.Cleanup(func() { evalCases, evalMode = "cases.json", "lexical" })
	err := runEval(evalCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
