package taxdump

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadNodes(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "nodes.dmp", strJoin(
		"1\t|\t1\t|\tno rank\t|\t",
		"2\t|\t1\t|\tsuperkingdom\t|\t",
		"9606\t|\t9605\t|\tspecies\t|\t",
	))

	nodes, err := LoadNodes(path)
	if err != nil {
		t.Fatalf("LoadNodes: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if n := nodes[9606]; n.Parent != 9605 || n.Rank != "species" {
		t.Fatalf("unexpected node for 9606: %+v", n)
	}
	if n := nodes[1]; n.Parent != 1 || n.Rank != "no rank" {
		t.Fatalf("unexpected root node: %+v", n)
	}
}

func TestLoadNames(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "names.dmp", strJoin(
		"9606\tHomo sapiens\tscientific name\t",
		"9606\tHuman\tcommon name\t",
	))

	names, err := LoadNames(path)
	if err != nil {
		t.Fatalf("LoadNames: %v", err)
	}
	if got := names[9606]; got != "Homo sapiens" {
		t.Fatalf("expected first name line to win, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "nodes.dmp", "1\t|\t1\t|\tno rank\t|\t\n9606\t|\t1\t|\tspecies\t|\t\n")
	writeTemp(t, dir, "names.dmp", "9606\tHomo sapiens\tscientific name\t\n")

	store, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.NameOf(9606) != "Homo sapiens" {
		t.Fatalf("unexpected name: %q", store.NameOf(9606))
	}
	if rank := store.RankOf(9606); rank != "species" {
		t.Fatalf("unexpected rank: %q", rank)
	}
}

func strJoin(lines ...string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
