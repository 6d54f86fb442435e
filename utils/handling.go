package utils

import (
	"strings"

	"golang.org/x/net/html"
)

// Between returns the text after the first occurrence of start up to the
// next occurrence of end.
func Between(s, start, end string) (string, bool) {
	i := strings.Index(s, start)
	if i == -1 {
		return "", false
	}
	rest := s[i+len(start):]

	j := strings.Index(rest, end)
	if j == -1 {
		return "", false
	}
	return rest[:j], true
}

// MetaContent scans markup for <meta name="name" content="..."> and returns
// the content attribute of the first match.
func MetaContent(input, name string) (string, bool) {
	tokenizer := html.NewTokenizer(strings.NewReader(input))

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := tokenizer.TagName()
			if string(tag) != "meta" || !hasAttr {
				continue
			}

			var metaName, content string
			for {
				key, val, more := tokenizer.TagAttr()
				switch string(key) {
				case "name":
					metaName = string(val)
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}

			if metaName == name && content != "" {
				return content, true
			}
		}
	}
}

// Snippet caps s to n bytes for log and error context.
func Snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
