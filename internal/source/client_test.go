package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

type fakeDoer struct {
	mu        sync.Mutex
	responses []func(req *http.Request) (*http.Response, error)
	calls     int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.mu.Unlock()
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx](req)
}

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(b)),
		Header:     http.Header{},
	}
}

func userByScreenNameBody(restID string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"result": map[string]any{"rest_id": restID},
			},
		},
	}
}

func singlePhotoPageBody(postID, url string) map[string]any {
	post := map[string]any{
		"__typename": "Post",
		"rest_id":    postID,
		"legacy": map[string]any{
			"created_at": "Wed Oct 10 20:19:24 +0000 2018",
			"extended_entities": map[string]any{
				"media": []map[string]any{
					{"type": "photo", "media_url_https": url},
				},
			},
		},
	}
	postJSON, _ := json.Marshal(post)
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"result": map[string]any{
					"timeline_v2": map[string]any{
						"timeline": map[string]any{
							"instructions": []map[string]any{
								{
									"type": "TimelineAddEntries",
									"entries": []map[string]any{
										{
											"entryId": "tweet-" + postID,
											"content": map[string]any{
												"entryType": "TimelineTimelineItem",
												"itemContent": map[string]any{
													"itemType":     "TimelineTweet",
													"post_results": map[string]any{"result": json.RawMessage(postJSON)},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func testBundle() *CookieBundle {
	return &CookieBundle{
		AuthPairs:    []AuthPair{{AuthToken: "tok-1", CT0: "ct0-1"}},
		OtherCookies: map[string]string{},
	}
}

func TestListPostsWithMediaHappyPath(t *testing.T) {
	doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
		func(req *http.Request) (*http.Response, error) { return jsonResponse(200, userByScreenNameBody("user-1")), nil },
		func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, singlePhotoPageBody("1", "https://example.test/a.jpg")), nil
		},
	}}
	client := New(testBundle(), "", nil, WithHTTPDoer(doer), WithHosts([]string{"https://host-a"}))

	result, err := client.ListPostsWithMedia(context.Background(), ListPostsRequest{
		Handle: "alice", Direction: DirectionNewer, PageLimit: 1,
	})
	if err != nil {
		t.Fatalf("ListPostsWithMedia: %v", err)
	}
	if len(result.Posts) != 1 || result.Posts[0].ID != "1" {
		t.Fatalf("unexpected posts: %+v", result.Posts)
	}
	if len(result.Posts[0].Media) != 1 || result.Posts[0].Media[0].URL != "https://example.test/a.jpg" {
		t.Fatalf("unexpected media: %+v", result.Posts[0].Media)
	}
}

func TestFetchReturnsRateLimitErrorWhenAllHostsExhausted(t *testing.T) {
	doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
		func(req *http.Request) (*http.Response, error) { return jsonResponse(429, map[string]any{}), nil },
	}}
	client := New(testBundle(), "", nil, WithHTTPDoer(doer), WithHosts([]string{"https://host-a", "https://host-b"}))

	_, err := client.fetch(context.Background(), userByScreenNamePath, nil)
	if !IsRateLimit(err) {
		t.Fatalf("expected RateLimitError, got %v (%T)", err, err)
	}
	rlErr, ok := err.(*RateLimitError)
	if !ok || len(rlErr.Hosts) != 2 {
		t.Fatalf("expected both hosts exhausted, got %+v", err)
	}
}

func TestFetchRotatesAuthOnAuthFailure(t *testing.T) {
	var seenCT0 []string
	doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
		func(req *http.Request) (*http.Response, error) {
			seenCT0 = append(seenCT0, req.Header.Get("x-csrf-token"))
			return jsonResponse(401, map[string]any{}), nil
		},
		func(req *http.Request) (*http.Response, error) {
			seenCT0 = append(seenCT0, req.Header.Get("x-csrf-token"))
			return jsonResponse(200, userByScreenNameBody("user-1")), nil
		},
	}}
	bundle := &CookieBundle{
		AuthPairs: []AuthPair{{AuthToken: "tok-1", CT0: "ct0-1"}, {AuthToken: "tok-2", CT0: "ct0-2"}},
	}
	client := New(bundle, "", nil, WithHTTPDoer(doer), WithHosts([]string{"https://host-a"}))

	_, err := client.fetch(context.Background(), userByScreenNamePath, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(seenCT0) != 2 || seenCT0[0] == seenCT0[1] {
		t.Fatalf("expected auth rotation between attempts, got %v", seenCT0)
	}
}

func TestParseCookiesRewritesXDotComDomain(t *testing.T) {
	raw := `[{"name":"auth_token","value":"tok","domain":"x.com"},{"name":"ct0","value":"csrf","domain":"x.com"}]`
	bundle, err := ParseCookies(raw)
	if err != nil {
		t.Fatalf("ParseCookies: %v", err)
	}
	if bundle.DomainRewrites != 2 {
		t.Fatalf("expected 2 domain rewrites, got %d", bundle.DomainRewrites)
	}
	if len(bundle.AuthPairs) == 0 || bundle.AuthPairs[0].AuthToken != "tok" {
		t.Fatalf("expected auth pair to be extracted, got %+v", bundle.AuthPairs)
	}
}

func TestParseCookiesAcceptsSerializedStringEntries(t *testing.T) {
	raw := `["auth_token=tok; Domain=.twitter.com; Path=/;", "ct0=csrf; Domain=.twitter.com; Path=/;"]`
	bundle, err := ParseCookies(raw)
	if err != nil {
		t.Fatalf("ParseCookies: %v", err)
	}
	if len(bundle.AuthPairs) != 1 || bundle.AuthPairs[0].CT0 != "csrf" {
		t.Fatalf("unexpected auth pairs: %+v", bundle.AuthPairs)
	}
}

func TestParseCookiesRequiresAuthPair(t *testing.T) {
	raw := `[{"name":"other","value":"x"}]`
	if _, err := ParseCookies(raw); err == nil {
		t.Fatal("expected error for missing auth_token/ct0")
	}
}

func TestExtractPageReturnsEmptyCursorWithoutBottomEntry(t *testing.T) {
	body := singlePhotoPageBody("5", "https://example.test/b.jpg")
	b, _ := json.Marshal(body)
	posts, cursor, err := extractPage(b)
	if err != nil {
		t.Fatalf("extractPage: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if cursor != "" {
		t.Fatalf("expected no bottom cursor in fixture, got %q", cursor)
	}
}

func TestDecodeStatusRoundTrips(t *testing.T) {
	tagged := encodeStatus(200, []byte(`{"ok":true}`))
	status, body := decodeStatus(tagged)
	if status != 200 || !strings.Contains(string(body), "ok") {
		t.Fatalf("decodeStatus() = (%d, %q)", status, body)
	}
}
