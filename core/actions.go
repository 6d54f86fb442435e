package core

import (
	"fmt"
	"sort"
	"strings"

	utils "grokparser/utils"

	"golang.org/x/sync/singleflight"
)

// ActionBundleAnalyzer recovers the server action ids and the xsid chunk
// from the page's candidate scripts. Solved sets are remembered by the
// action-bearing script path.
type ActionBundleAnalyzer struct {
	Fetcher    Fetcher
	Cache      *MappingCache[ActionMapping]
	Classifier BundleClassifier
	Patterns   PatternExtractor
	Site       string

	group singleflight.Group
}

// lookup returns the first cached record, in insertion order, whose action
// script is among the candidates.
func (a *ActionBundleAnalyzer) lookup(candidates []string) (utils.ActionSolution, bool, error) {
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[c] = struct{}{}
	}

	var (
		found utils.ActionSolution
		hit   bool
	)
	err := a.Cache.View(func(records ActionMapping) {
		for _, rec := range records {
			if _, ok := set[rec.ActionScript]; ok {
				found = rec
				found.Actions = append([]string{}, rec.Actions...)
				hit = true
				return
			}
		}
	})
	return found, hit, err
}

func (a *ActionBundleAnalyzer) Resolve(candidates []string) (utils.ActionSolution, error) {
	solution, hit, err := a.lookup(candidates)
	if err != nil {
		return utils.ActionSolution{}, err
	}
	if hit {
		utils.Log.WithField("script", solution.ActionScript).Debug("action cache hit")
		return solution, nil
	}

	key := append([]string{}, candidates...)
	sort.Strings(key)

	v, err, _ := a.group.Do(strings.Join(key, "\n"), func() (interface{}, error) {
		if solution, hit, err := a.lookup(candidates); err != nil || hit {
			return solution, err
		}
		return a.analyze(candidates)
	})
	if err != nil {
		return utils.ActionSolution{}, err
	}

	solution = v.(utils.ActionSolution)
	solution.Actions = append([]string{}, solution.Actions...)
	return solution, nil
}

func (a *ActionBundleAnalyzer) analyze(candidates []string) (utils.ActionSolution, error) {
	var actionContent, markerContent, actionScript string

	for _, script := range candidates {
		content, err := a.Fetcher.Get(strings.TrimRight(a.Site, "/") + script)
		if err != nil {
			return utils.ActionSolution{}, fmt.Errorf("failed to fetch %s: %w", script, err)
		}

		switch a.Classifier.Classify(content) {
		case RoleAction:
			actionContent = content
			actionScript = script
		case RoleMarker:
			markerContent = content
		}
	}

	if actionContent == "" || markerContent == "" {
		var missing []string
		if actionContent == "" {
			missing = append(missing, RoleAction.String())
		}
		if markerContent == "" {
			missing = append(missing, RoleMarker.String())
		}
		err := extractionError(ErrRoleNotFound, strings.Join(missing, ","), "",
			fmt.Errorf("%d candidate scripts", len(candidates)))
		utils.Log.WithError(err).Error("failed to locate expected scripts")
		return utils.ActionSolution{}, err
	}

	actions := a.Patterns.ActionIDs(actionContent)
	if len(actions) == 0 {
		err := extractionError(ErrPatternNotFound, "createServerReference", utils.Snippet(actionContent, snippetSize), nil)
		utils.Log.WithError(err).WithField("script", actionScript).Error("no server actions in action script")
		return utils.ActionSolution{}, err
	}

	chunks := a.Patterns.ChunkPaths(markerContent)
	sentinel := strings.Index(markerContent, SentinelID)

	chunk, fallback, ok := SelectChunk(chunks, sentinel)
	if !ok {
		snippet := utils.Snippet(markerContent, snippetSize)
		err := extractionError(ErrPatternNotFound, "xsid script", snippet,
			fmt.Errorf("%d chunk paths, sentinel at %d", len(chunks), sentinel))
		utils.Log.WithError(err).Errorf("xsid script regex did not match. snippet=\n%s\n...", snippet)
		return utils.ActionSolution{}, err
	}
	if fallback {
		utils.Log.WithField("chunk", chunk.Path).Warn("no chunk precedes the sentinel, using the first chunk")
	}

	solution := utils.ActionSolution{
		XsidScript:   chunk.Path,
		ActionScript: actionScript,
		Actions:      actions,
		Fallback:     fallback,
	}

	err := a.Cache.Update(func(records *ActionMapping) {
		rec := solution
		rec.Actions = append([]string{}, actions...)
		*records = append(*records, rec)
	})
	if err != nil {
		utils.Log.WithError(err).Error("failed to persist action cache")
	}

	utils.Log.WithField("script", actionScript).WithField("count", len(actions)).Info("resolved server actions")
	return solution, nil
}
