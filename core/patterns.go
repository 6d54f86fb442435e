package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Signatures of the current grok.com TurboPack bundles. They were read off a
// specific bundle build and are not a contract: when resolution starts
// failing with ErrRoleNotFound or ErrPatternNotFound, re-check them first.
const (
	// Only the action-bearing chunk references the anonymous key pair.
	ActionMarker = "anonPrivateKey"
	// Module id the bootstrap resolves right after loading the xsid chunk.
	SentinelID     = "880932"
	SentinelMarker = SentinelID + ")"
)

var (
	tableIdiomPattern = regexp.MustCompile(`x\[(\d+)\]\s*,\s*16`)
	actionRefPattern  = regexp.MustCompile(`createServerReference\)\("([a-f0-9]+)"`)
	chunkPathPattern  = regexp.MustCompile(`["'](static/chunks/[^"']+\.js)["']`)
	pathDatumPattern  = regexp.MustCompile(`"d":"(M[^"]{200,})"`)
)

type Role int

const (
	RoleNone Role = iota
	RoleAction
	RoleMarker
)

func (r Role) String() string {
	switch r {
	case RoleAction:
		return "action"
	case RoleMarker:
		return "marker"
	default:
		return "none"
	}
}

type BundleClassifier interface {
	Classify(content string) Role
}

type ChunkMatch struct {
	Path   string
	Offset int
}

type PatternExtractor interface {
	TableIndices(src string) []int
	ActionIDs(src string) []string
	ChunkPaths(src string) []ChunkMatch
	PathData(html string) []string
}

// SignatureClassifier checks the action marker before the sentinel marker,
// so a script carrying both is treated as action-bearing.
type SignatureClassifier struct {
	ActionMarker   string
	SentinelMarker string
}

var DefaultClassifier = SignatureClassifier{
	ActionMarker:   ActionMarker,
	SentinelMarker: SentinelMarker,
}

func (c SignatureClassifier) Classify(content string) Role {
	switch {
	case strings.Contains(content, c.ActionMarker):
		return RoleAction
	case strings.Contains(content, c.SentinelMarker):
		return RoleMarker
	default:
		return RoleNone
	}
}

type RegexExtractor struct {
	TableIdiom *regexp.Regexp
	ActionRef  *regexp.Regexp
	ChunkPath  *regexp.Regexp
	PathDatum  *regexp.Regexp
}

var DefaultExtractor = RegexExtractor{
	TableIdiom: tableIdiomPattern,
	ActionRef:  actionRefPattern,
	ChunkPath:  chunkPathPattern,
	PathDatum:  pathDatumPattern,
}

// All extractors keep document order and duplicates.

func (e RegexExtractor) TableIndices(src string) []int {
	matches := e.TableIdiom.FindAllStringSubmatch(src, -1)
	numbers := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers
}

func (e RegexExtractor) ActionIDs(src string) []string {
	return submatches(e.ActionRef, src)
}

func (e RegexExtractor) PathData(html string) []string {
	return submatches(e.PathDatum, html)
}

func (e RegexExtractor) ChunkPaths(src string) []ChunkMatch {
	var chunks []ChunkMatch
	for _, loc := range e.ChunkPath.FindAllStringSubmatchIndex(src, -1) {
		chunks = append(chunks, ChunkMatch{Path: src[loc[2]:loc[3]], Offset: loc[0]})
	}
	return chunks
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// SelectChunk picks the chunk closest before the sentinel offset. With no
// chunk before it, the first chunk is returned and fallback is set.
func SelectChunk(chunks []ChunkMatch, sentinel int) (chunk ChunkMatch, fallback bool, ok bool) {
	if sentinel < 0 || len(chunks) == 0 {
		return ChunkMatch{}, false, false
	}

	best := -1
	for i, c := range chunks {
		if c.Offset < sentinel && (best == -1 || c.Offset > chunks[best].Offset) {
			best = i
		}
	}
	if best == -1 {
		return chunks[0], true, true
	}
	return chunks[best], false, true
}
