package source

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"archivist/internal/state"
)

// postedAtLayout matches the source platform's legacy created_at format,
// e.g. "Wed Oct 10 20:19:24 +0000 2018".
const postedAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Media is one media entity attached to a post.
type Media struct {
	URL  string
	Type state.MediaType
}

// Post is a media-bearing post surfaced by the timeline.
type Post struct {
	ID       string
	PostedAt time.Time
	Media    []Media
}

// MediaCount returns the number of media entities attached to the post.
func (p Post) MediaCount() int { return len(p.Media) }

type timelineResponse struct {
	Data struct {
		User struct {
			Result struct {
				TimelineV2 struct {
					Timeline struct {
						Instructions []timelineInstruction `json:"instructions"`
					} `json:"timeline"`
				} `json:"timeline_v2"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type timelineInstruction struct {
	Type    string          `json:"type"`
	Entries []timelineEntry `json:"entries"`
}

type timelineEntry struct {
	EntryID string `json:"entryId"`
	Content struct {
		EntryType   string `json:"entryType"`
		CursorType  string `json:"cursorType"`
		Value       string `json:"value"`
		ItemContent struct {
			ItemType    string `json:"itemType"`
			PostResults struct {
				Result json.RawMessage `json:"result"`
			} `json:"post_results"`
		} `json:"itemContent"`
	} `json:"content"`
}

type postResult struct {
	Typename string          `json:"__typename"`
	RestID   string          `json:"rest_id"`
	Post     json.RawMessage `json:"post"`
	Legacy   struct {
		CreatedAt        string `json:"created_at"`
		ExtendedEntities struct {
			Media []mediaEntity `json:"media"`
		} `json:"extended_entities"`
	} `json:"legacy"`
}

type mediaEntity struct {
	Type           string `json:"type"`
	MediaURLHTTPS  string `json:"media_url_https"`
	VideoInfo      struct {
		Variants []struct {
			Bitrate     int    `json:"bitrate"`
			ContentType string `json:"content_type"`
			URL         string `json:"url"`
		} `json:"variants"`
	} `json:"video_info"`
}

// extractPage parses a raw timeline page body into deduplicated,
// newest-first posts plus the trailing bottom cursor (if any).
func extractPage(body []byte) (posts []Post, bottomCursor string, err error) {
	var resp timelineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", err
	}

	seen := map[string]bool{}
	var out []Post
	for _, instr := range resp.Data.User.Result.TimelineV2.Timeline.Instructions {
		for _, entry := range instr.Entries {
			if entry.Content.CursorType == "Bottom" {
				bottomCursor = entry.Content.Value
				continue
			}
			raw := entry.Content.ItemContent.PostResults.Result
			if len(raw) == 0 {
				continue
			}
			post, ok := extractPost(raw)
			if !ok || seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			out = append(out, post)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return numericID(out[i].ID) > numericID(out[j].ID)
	})
	return out, bottomCursor, nil
}

func extractPost(raw json.RawMessage) (Post, bool) {
	var result postResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return Post{}, false
	}
	if result.Typename == "PostWithVisibilityResults" && len(result.Post) > 0 {
		if err := json.Unmarshal(result.Post, &result); err != nil {
			return Post{}, false
		}
	}

	media := make([]Media, 0, len(result.Legacy.ExtendedEntities.Media))
	for _, m := range result.Legacy.ExtendedEntities.Media {
		switch m.Type {
		case "photo":
			if m.MediaURLHTTPS != "" {
				media = append(media, Media{URL: m.MediaURLHTTPS, Type: state.MediaPhoto})
			}
		case "video", "animated_gif":
			if url, ok := bestMP4Variant(m); ok {
				mediaType := state.MediaVideo
				if m.Type == "animated_gif" {
					mediaType = state.MediaGIF
				}
				media = append(media, Media{URL: url, Type: mediaType})
			}
		}
	}
	if len(media) == 0 {
		return Post{}, false
	}
	postedAt, _ := time.Parse(postedAtLayout, result.Legacy.CreatedAt)
	return Post{ID: result.RestID, PostedAt: postedAt, Media: media}, true
}

func bestMP4Variant(m mediaEntity) (string, bool) {
	bestBitrate := -1
	bestURL := ""
	for _, v := range m.VideoInfo.Variants {
		if v.ContentType != "video/mp4" {
			continue
		}
		if v.Bitrate > bestBitrate {
			bestBitrate = v.Bitrate
			bestURL = v.URL
		}
	}
	return bestURL, bestURL != ""
}

func numericID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
