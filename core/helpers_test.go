package core

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: map[string]int{}}
}

func (f *fakeFetcher) Get(url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("%s returned non-200 status code: 404", url)
	}
	return page, nil
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func pathDatum(seed int) string {
	return fmt.Sprintf("M%d ", seed) + strings.Repeat("C 10 20 30 ", 25)
}

func challengePage(raw []byte, paths int) string {
	var b strings.Builder
	b.WriteString(`<html><script>self.__next_f.push([1,"[\"$\",\"meta\",null,{`)
	b.WriteString(`"name":"grok-site-verification","content":"`)
	b.WriteString(base64.StdEncoding.EncodeToString(raw))
	b.WriteString(`"}]"])</script>`)
	for i := 0; i < paths; i++ {
		fmt.Fprintf(&b, `{"d":"%s"}`, pathDatum(i))
	}
	b.WriteString(`"ondemand.s":"8fa3c1"</html>`)
	return b.String()
}

func newTestParser(pages map[string]string) (*Parser, *fakeFetcher, *MemoryStore, *MemoryStore) {
	fetcher := newFakeFetcher(pages)
	tables, actions := &MemoryStore{}, &MemoryStore{}
	return NewParser(fetcher, tables, actions, "https://grok.com"), fetcher, tables, actions
}
