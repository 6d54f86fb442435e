package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestResolveLocation(t *testing.T) {
	p, _, _, _ := newTestParser(nil)
	html := challengePage([]byte{0, 0, 0, 0, 0, 0}, 0)

	tests := []struct {
		scriptID string
		want     string
	}{
		{"ondemand.s", "https://abs.twimg.com/responsive-web/client-web/ondemand.s.8fa3c1a.js"},
		{"static/chunks/4f1e-9a2b.js", "https://grok.com/_next/static/chunks/4f1e-9a2b.js"},
	}
	for _, tt := range tests {
		got, err := p.Tables.ResolveLocation(html, tt.scriptID)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.scriptID, got, tt.want)
		}
	}

	if _, err := p.Tables.ResolveLocation("<html></html>", "ondemand.s"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestResolveTableCachesByLocation(t *testing.T) {
	location := "https://grok.com/_next/static/chunks/main.js"
	p, fetcher, store, _ := newTestParser(map[string]string{
		location: `q(x[12],16),r(x[3] ,16),s(x[12],16)`,
	})

	first, err := p.Tables.ResolveTable(location)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Tables.ResolveTable(location)
	if err != nil {
		t.Fatal(err)
	}

	want := []int{12, 3, 12}
	if !reflect.DeepEqual(first, want) || !reflect.DeepEqual(second, want) {
		t.Fatalf("got %v then %v, want %v", first, second, want)
	}
	if fetcher.total() != 1 {
		t.Fatalf("fetches = %d, want 1", fetcher.total())
	}
	if store.Loads != 1 || store.Saves != 1 {
		t.Fatalf("loads=%d saves=%d", store.Loads, store.Saves)
	}
	if got := string(store.Bytes()); got != `{"https://grok.com/_next/static/chunks/main.js":[12,3,12]}` {
		t.Fatalf("persisted %s", got)
	}

	// callers get their own copy
	first[0] = 99
	again, _ := p.Tables.ResolveTable(location)
	if again[0] != 12 {
		t.Fatal("cached table was mutated through a returned slice")
	}
}

func TestResolveTableEmptyIsNotAnError(t *testing.T) {
	location := "https://grok.com/_next/empty.js"
	p, _, store, _ := newTestParser(map[string]string{location: "console.log(1)"})

	numbers, err := p.Tables.ResolveTable(location)
	if err != nil {
		t.Fatal(err)
	}
	if len(numbers) != 0 {
		t.Fatalf("got %v", numbers)
	}
	if got := string(store.Bytes()); got != `{"https://grok.com/_next/empty.js":[]}` {
		t.Fatalf("persisted %s", got)
	}
}

func TestResolveTableFetchErrorNotCached(t *testing.T) {
	p, fetcher, store, _ := newTestParser(nil)

	if _, err := p.Tables.ResolveTable("https://grok.com/_next/missing.js"); err == nil {
		t.Fatal("expected fetch error")
	}
	if store.Saves != 0 {
		t.Fatal("failed fetch was persisted")
	}
	if _, err := p.Tables.ResolveTable("https://grok.com/_next/missing.js"); err == nil {
		t.Fatal("expected fetch error")
	}
	if fetcher.total() != 2 {
		t.Fatalf("fetches = %d", fetcher.total())
	}
}

func TestResolveTableConcurrentMisses(t *testing.T) {
	location := "https://grok.com/_next/shared.js"
	p, fetcher, _, _ := newTestParser(map[string]string{location: "x[1],16"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Tables.ResolveTable(location); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if fetcher.total() != 1 {
		t.Fatalf("fetches = %d, want 1", fetcher.total())
	}
}

func TestTableCacheSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	pages := map[string]string{
		"https://grok.com/_next/a.js": "x[1],16 x[2],16",
		"https://grok.com/_next/b.js": "x[30],16",
	}

	first := newFakeFetcher(pages)
	p := NewParser(first, FileStore{Path: path}, &MemoryStore{}, "https://grok.com")
	for url := range pages {
		if _, err := p.Tables.ResolveTable(url); err != nil {
			t.Fatal(err)
		}
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	second := newFakeFetcher(nil)
	restarted := NewParser(second, FileStore{Path: path}, &MemoryStore{}, "https://grok.com")
	got, err := restarted.Tables.ResolveTable("https://grok.com/_next/a.js")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) || second.total() != 0 {
		t.Fatalf("got %v after %d fetches", got, second.total())
	}

	// rewriting the reloaded mapping must reproduce the same bytes
	if err := restarted.Tables.Cache.Update(func(*TableMapping) {}); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("cache changed across restart:\n%s\n%s", before, after)
	}
}
