// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta tag names read from the hosting page
const (
	MetaAPIKey    = "google-sheets-api-key"
	MetaSheetID   = "google-sheets-id"
	MetaSheetName = "google-sheets-name"
	MetaScriptURL = "google-apps-script-url"
)

// LoadMetaTags reads name -> content for every <meta name=...> in an HTML file
func LoadMetaTags(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open meta file: %w", err)
	}
	defer f.Close()

	return ParseMetaTags(f)
}

// ParseMetaTags is LoadMetaTags over an arbitrary reader
func ParseMetaTags(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}

	tags := map[string]string{}
	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		content = strings.TrimSpace(content)
		if name != "" && content != "" {
			tags[strings.ToLower(name)] = content
		}
	})
	return tags, nil
}

func applyMetaTags(cfg *Config, tags map[string]string) {
	metaFallback(&cfg.SheetsAPIKey, tags[MetaAPIKey])
	metaFallback(&cfg.SheetID, tags[MetaSheetID])
	metaFallback(&cfg.SheetName, tags[MetaSheetName])
	metaFallback(&cfg.ScriptURL, tags[MetaScriptURL])
}

func metaFallback(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
