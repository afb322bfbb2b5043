// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/binary"
	"maps"

	"github.com/go-crypt/x/blake2b"
)

// Platform identifies the social platform a record was collected from.
type Platform string

const (
	PlatformWeibo    Platform = "weibo"
	PlatformBilibili Platform = "bilibili"
	PlatformZhihu    Platform = "zhihu"
)

// AllPlatforms lists every supported platform in persist order.
var AllPlatforms = []Platform{PlatformWeibo, PlatformBilibili, PlatformZhihu}

// ContentHash returns a stable 64-bit fingerprint of text.
// Used for memoization keys and ledger entries.
func ContentHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// DedupKey is the (platform, id) pair used to collapse duplicate records
// across files and runs.
type DedupKey struct {
	Platform Platform
	ID       string
}

// String returns the key as "platform:id".
func (k DedupKey) String() string {
	return string(k.Platform) + ":" + k.ID
}

// Verdict is the outcome of a relevance judgment.
// Score is advisory; IsRelevant is authoritative.
type Verdict struct {
	IsRelevant bool    `json:"is_relevant"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// Record is one piece of platform content held in memory for a single run.
type Record struct {
	Platform Platform
	ID       string
	Payload  map[string]any   // Raw fields as persisted by the crawler
	Comments []map[string]any // Attached during comment merge
	Verdict  *Verdict         // Attached during classification
}

// Key returns the record's dedup key.
func (r *Record) Key() DedupKey {
	return DedupKey{Platform: r.Platform, ID: r.ID}
}

// Output builds the persisted form of the record: a shallow copy of the
// payload stamped with comments, platform tag and relevance id.
func (r *Record) Output() map[string]any {
	out := make(map[string]any, len(r.Payload)+3)
	maps.Copy(out, r.Payload)
	comments := r.Comments
	if comments == nil {
		comments = []map[string]any{}
	}
	out["comments"] = comments
	out["platform"] = string(r.Platform)
	out["relevance_id"] = r.ID
	StringifyIDs(out)
	return out
}

// CrawlMode selects how an external crawler fetches content.
type CrawlMode string

const (
	// CrawlModeSearch fetches abbreviated search results for keywords.
	CrawlModeSearch CrawlMode = "search"
	// CrawlModeDetail re-fetches specific items in full-content form.
	CrawlModeDetail CrawlMode = "detail"
)

// CrawlRequest is the complete, immutable configuration for one delegated
// crawl. Callers build a fresh value per invocation; nothing is shared.
type CrawlRequest struct {
	Platform       Platform
	Mode           CrawlMode
	Keywords       []string
	IDs            []string // Only used in detail mode
	Cookies        string
	Headless       bool
	EnableComments bool
}
