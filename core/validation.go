package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// idFields are the raw fields normalized to strings before records are
// compared or persisted.
var idFields = []string{"note_id", "comment_id", "user_id", "video_id", "content_id", "url", "content_url"}

// ParsePlatform validates a platform name.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	if err := ValidatePlatform(p); err != nil {
		return "", err
	}
	return p, nil
}

// ValidatePlatform returns ErrUnknownPlatform for unsupported values.
func ValidatePlatform(p Platform) error {
	switch p {
	case PlatformWeibo, PlatformBilibili, PlatformZhihu:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
}

// ValidateRecord checks a record has a supported platform and an id.
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if err := ValidatePlatform(record.Platform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingID)
	}
	return nil
}

// NewRecord reads item's platform-native id and returns a validated record
// holding item as its payload.
func NewRecord(p Platform, item map[string]any) (*Record, error) {
	id, err := RecordID(p, item)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	record := &Record{Platform: p, ID: id, Payload: item}
	if err := ValidateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// ValidateCrawlRequest checks the request is complete for its mode.
func ValidateCrawlRequest(req CrawlRequest) error {
	if err := ValidatePlatform(req.Platform); err != nil {
		return err
	}
	switch req.Mode {
	case CrawlModeSearch, CrawlModeDetail:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCrawlMode, string(req.Mode))
	}
	return nil
}

// RecordID extracts the platform-native identifier of a content item.
func RecordID(p Platform, item map[string]any) (string, error) {
	var id string
	switch p {
	case PlatformWeibo:
		id = firstID(item, "note_id")
	case PlatformBilibili:
		id = firstID(item, "video_id")
	case PlatformZhihu:
		id = firstID(item, "url", "content_url", "content_id")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

// CommentTargetID extracts the id of the content item a comment belongs to.
// Bilibili comments may reference their video by bvid instead of video_id.
func CommentTargetID(p Platform, comment map[string]any) (string, error) {
	if p == PlatformBilibili {
		if id := firstID(comment, "video_id", "bvid"); id != "" {
			return id, nil
		}
		return "", ErrMissingID
	}
	return RecordID(p, comment)
}

// StringifyIDs converts known identifier fields to strings in place so that
// numeric and textual ids compare equal.
func StringifyIDs(item map[string]any) {
	for _, field := range idFields {
		v, ok := item[field]
		if !ok || v == nil {
			continue
		}
		item[field] = Stringify(v)
	}
}

// Stringify renders a decoded JSON scalar as a string. Integral floats are
// printed without a decimal point.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e18 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return Stringify(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func firstID(item map[string]any, fields ...string) string {
	for _, field := range fields {
		if id := strings.TrimSpace(Stringify(item[field])); id != "" {
			return id
		}
	}
	return ""
}
