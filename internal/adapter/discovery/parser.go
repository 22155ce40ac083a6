package discovery

import (
	"errors"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/freytube/freytube/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pipedInstance is one entry of the Piped directory. Only api_url and
// up_to_date drive selection, the rest is kept for debug logging.
type pipedInstance struct {
	UpToDate    *bool  `json:"up_to_date"`
	Name        string `json:"name"`
	APIURL      string `json:"api_url"`
	Locations   string `json:"locations"`
	Version     string `json:"version"`
	Registered  int64  `json:"registered"`
	LastChecked int64  `json:"last_checked"`
	CDN         bool   `json:"cdn"`
}

// upToDate treats a missing flag as up to date
func (p pipedInstance) upToDate() bool {
	return p.UpToDate == nil || *p.UpToDate
}

// ParsePipedInstances turns the Piped directory into a ranked URL list:
// blank URLs dropped, up-to-date instances first (stable otherwise), then
// normalised and deduplicated.
func ParsePipedInstances(body []byte) ([]string, error) {
	var entries []pipedInstance
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &ParseError{Format: "piped", Err: err}
	}

	candidates := make([]pipedInstance, 0, len(entries))
	for _, entry := range entries {
		if util.NormaliseBaseURL(entry.APIURL) != "" {
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].upToDate() && !candidates[j].upToDate()
	})

	urls := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, entry := range candidates {
		url := util.NormaliseBaseURL(entry.APIURL)
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls, nil
}

// ParseInvidiousInstances reads the Invidious directory, an array of
// [domain, metadata] pairs, into at most limit https base URLs. Entries that
// are not arrays or whose first element is not a string are skipped.
func ParseInvidiousInstances(body []byte, limit int) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Format: "invidious", Err: errors.New("invalid JSON")}
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, &ParseError{Format: "invidious", Err: fmt.Errorf("expected array, got %s", root.Type)}
	}

	var urls []string
	root.ForEach(func(_, entry gjson.Result) bool {
		if limit > 0 && len(urls) >= limit {
			return false
		}
		if !entry.IsArray() {
			return true
		}
		domain := entry.Get("0")
		if domain.Type != gjson.String {
			return true
		}
		if url := util.HTTPSFromDomain(domain.Str); url != "" {
			urls = append(urls, url)
		}
		return true
	})
	return urls, nil
}
