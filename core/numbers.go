package core

import (
	"fmt"
	"strings"

	utils "grokparser/utils"

	"golang.org/x/sync/singleflight"
)

// Fetcher is a browser-impersonating GET returning the response text.
type Fetcher interface {
	Get(url string) (string, error)
}

// NumericTableResolver maps a script id to its bundle URL and the numeric
// table found in that bundle. Bundles are versioned by URL, so a cached
// table never goes stale.
type NumericTableResolver struct {
	Fetcher  Fetcher
	Cache    *MappingCache[TableMapping]
	Patterns PatternExtractor
	Site     string

	group singleflight.Group
}

func (r *NumericTableResolver) ResolveLocation(html, scriptID string) (string, error) {
	if scriptID == utils.OnDemandScriptID {
		fragment, ok := utils.Between(html, `"`+scriptID+`":"`, `"`)
		if !ok {
			return "", extractionError(ErrMissingField, scriptID, utils.Snippet(html, snippetSize), nil)
		}
		return utils.OnDemandBaseURL + fragment + "a.js", nil
	}
	return strings.TrimRight(r.Site, "/") + "/_next/" + scriptID, nil
}

func (r *NumericTableResolver) lookup(location string) ([]int, bool, error) {
	var (
		numbers []int
		hit     bool
	)
	err := r.Cache.View(func(m TableMapping) {
		cached, ok := m[location]
		if ok {
			numbers = append([]int{}, cached...)
			hit = true
		}
	})
	return numbers, hit, err
}

func (r *NumericTableResolver) ResolveTable(location string) ([]int, error) {
	numbers, hit, err := r.lookup(location)
	if err != nil {
		return nil, err
	}
	if hit {
		utils.Log.WithField("location", location).Debug("table cache hit")
		return numbers, nil
	}

	v, err, _ := r.group.Do(location, func() (interface{}, error) {
		// a concurrent caller may have filled it while we waited
		if numbers, hit, err := r.lookup(location); err != nil || hit {
			return numbers, err
		}

		utils.Log.WithField("location", location).Info("fetching bundle for numeric table")
		content, err := r.Fetcher.Get(location)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
		}

		numbers := r.Patterns.TableIndices(content)
		if len(numbers) == 0 {
			utils.Log.WithField("location", location).Warn("no table idiom found in bundle")
		}

		err = r.Cache.Update(func(m *TableMapping) {
			(*m)[location] = append([]int{}, numbers...)
		})
		if err != nil {
			utils.Log.WithError(err).WithField("location", location).Error("failed to persist table cache")
		}
		return numbers, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]int{}, v.([]int)...), nil
}
