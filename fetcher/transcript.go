package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

// Transcripts are scraped from the watch page: ytInitialPlayerResponse holds
// the caption tracks, each track points to a timedtext XML document. The
// ANDROID innertube /player endpoint is the fallback.

const (
	ytWatchURL       = "https://www.youtube.com/watch"
	ytPlayerURL      = "https://www.youtube.com/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
	browserUA        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse = "
)

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled")
	ErrRetrievalFailed     = errors.New("transcript retrieval failed")
)

type Transcript struct {
	Text   string
	Title  string
	Author string
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	} `json:"videoDetails"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type YoutubeTranscript struct {
	client    *http.Client
	watchURL  string
	playerURL string
	langs     []string
	limiter   *rate.Limiter
	retry     RetryConfig
	logger    *slog.Logger
}

// NewYoutubeTranscript creates a transcript fetcher. All requests to youtube
// share one limiter of rps requests per second, rps <= 0 means unlimited.
func NewYoutubeTranscript(client *http.Client, langs []string, rps float64, logger *slog.Logger) *YoutubeTranscript {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &YoutubeTranscript{
		client:    client,
		watchURL:  ytWatchURL,
		playerURL: ytPlayerURL,
		langs:     langs,
		limiter:   rate.NewLimiter(limit, 1),
		retry:     DefaultRetryConfig,
		logger:    logger,
	}
}

func (y *YoutubeTranscript) FetchTranscript(ctx context.Context, videoID string) (Transcript, error) {
	tr, err := y.viaWatchPage(ctx, videoID)
	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, ErrTranscriptsDisabled):
		return Transcript{}, err
	}
	y.logger.Warn("watch page scrape failed, trying player", slog.String("video", videoID), slog.String("error", err.Error()))

	tr, err = y.viaPlayer(ctx, videoID)
	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, ErrTranscriptsDisabled):
		return Transcript{}, err
	default:
		return Transcript{}, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
}

func (y *YoutubeTranscript) viaWatchPage(ctx context.Context, videoID string) (Transcript, error) {
	resp, err := y.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.watchURL+"?v="+videoID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUA)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return req, nil
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return Transcript{}, fmt.Errorf("read watch page: %w", err)
	}
	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return Transcript{}, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	data := extractJSON(body[idx+len(playerResponseMarker):])
	if data == nil {
		return Transcript{}, errors.New("failed to extract ytInitialPlayerResponse")
	}
	var pr playerResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return Transcript{}, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}

	return y.fromPlayerResponse(ctx, pr)
}

func (y *YoutubeTranscript) viaPlayer(ctx context.Context, videoID string) (Transcript, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return Transcript{}, err
	}

	resp, err := y.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.playerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return req, nil
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("android player: %w", err)
	}
	defer resp.Body.Close()

	var pr playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Transcript{}, fmt.Errorf("decode player: %w", err)
	}

	return y.fromPlayerResponse(ctx, pr)
}

func (y *YoutubeTranscript) fromPlayerResponse(ctx context.Context, pr playerResponse) (Transcript, error) {
	if pr.PlayabilityStatus != nil && pr.PlayabilityStatus.Status != "" && pr.PlayabilityStatus.Status != "OK" {
		return Transcript{}, fmt.Errorf("video not playable: %s %s", pr.PlayabilityStatus.Status, pr.PlayabilityStatus.Reason)
	}
	if pr.Captions == nil || len(pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return Transcript{}, ErrTranscriptsDisabled
	}
	track, ok := pickBestTrack(pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, y.langs)
	if !ok {
		return Transcript{}, errors.New("all caption tracks require a po token")
	}
	text, err := y.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return Transcript{}, err
	}
	if text == "" {
		return Transcript{}, errors.New("empty transcript")
	}

	tr := Transcript{Text: text}
	if pr.VideoDetails != nil {
		tr.Title = pr.VideoDetails.Title
		tr.Author = pr.VideoDetails.Author
	}
	return tr, nil
}

func (y *YoutubeTranscript) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := y.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUA)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", err
	}
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}

	lines := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// do waits for the limiter, then sends the request. Throttled and broken
// responses are repeated as configured, other responses than 200 are errors.
func (y *YoutubeTranscript) do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := y.send(ctx, newReq)
		if err == nil {
			return resp, nil
		}
		if !transient(err) || attempt >= y.retry.MaxRetries {
			return nil, err
		}

		var hint time.Duration
		var te *throttledError
		if errors.As(err, &te) {
			hint = te.RetryAfter
		}
		wait := y.retry.backoff(attempt, hint)
		y.logger.Debug("retrying youtube request", slog.Int("attempt", attempt+1), slog.Duration("wait", wait), slog.String("error", err.Error()))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func (y *YoutubeTranscript) send(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := newReq()
	if err != nil {
		return nil, err
	}
	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkThrottled(resp, time.Now()); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}

	return resp, nil
}

// pickBestTrack prefers a manual track in one of langs, then an auto-generated
// one, then any english track. Tracks that need a po token are skipped.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !strings.Contains(t.BaseURL, "&exp=xpe") {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// extractJSON returns the JSON object that starts at b[0] by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
