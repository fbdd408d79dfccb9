package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/ytsum/model"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	className = "VideoSummary"
)

// videoNamespace makes object ids deterministic, so an upsert of the same
// video always hits the same object.
var videoNamespace = uuid.MustParse("6f1c0f5e-2b7c-4d55-9a38-51f0e4b4c7a1")

type WeaviateInfo struct {
	Scheme       string
	Host         string
	ApiKey       string
	OpenAIApiKey string
}

type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(info WeaviateInfo) (*Weaviate, error) {
	scheme := info.Scheme
	if scheme == "" {
		scheme = "https"
	}
	config := weaviate.Config{
		Scheme:  scheme,
		Host:    info.Host,
		Headers: map[string]string{},
	}
	if info.ApiKey != "" {
		config.AuthConfig = auth.ApiKey{Value: info.ApiKey}
	}
	if info.OpenAIApiKey != "" {
		config.Headers["X-OpenAI-Api-Key"] = info.OpenAIApiKey
	}

	c, err := weaviate.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Weaviate{client: c}, nil
}

func objectID(id model.YoutubeVideoID) string {
	return uuid.NewSHA1(videoNamespace, []byte(id)).String()
}

func isStatus(err error, status int) bool {
	var clientErr *fault.WeaviateClientError
	return errors.As(err, &clientErr) && clientErr.StatusCode == status
}

func (w *Weaviate) EnsureSchema(ctx context.Context) error {
	_, err := w.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
	switch {
	case err == nil:
		return nil
	case isStatus(err, http.StatusNotFound):
		return w.createClass(ctx)
	default:
		return err
	}
}

func (w *Weaviate) Reset(ctx context.Context) error {
	// delete old
	if err := w.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		// weaviate returns a 400 if the class does not exist
		if !isStatus(err, http.StatusBadRequest) {
			return err
		}
	}

	return w.createClass(ctx)
}

func (w *Weaviate) createClass(ctx context.Context) error {
	classObj := &models.Class{
		Class:      className,
		Vectorizer: "text2vec-openai",
		ModuleConfig: map[string]any{
			"text2vec-openai": map[string]any{
				"model":        "ada",
				"modelVersion": "002",
				"type":         "text",
			},
		},
	}

	return w.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
}

func (w *Weaviate) Save(ctx context.Context, video model.VideoRecord) error {
	vID := objectID(video.ID)
	props := map[string]any{
		"videoId": string(video.ID),
		"url":     video.URL,
		"title":   video.Title,
		"author":  video.Author,
		"summary": video.Summary,
	}

	exists, err := w.client.Data().
		Checker().
		WithID(vID).
		WithClassName(className).
		Do(ctx)
	if err != nil {
		return err
	}

	if exists {
		return w.client.Data().
			Updater().
			WithID(vID).
			WithClassName(className).
			WithProperties(props).
			Do(ctx)
	}

	_, err = w.client.Data().
		Creator().
		WithClassName(className).
		WithID(vID).
		WithProperties(props).
		Do(ctx)

	return err
}

func (w *Weaviate) Delete(ctx context.Context, id model.YoutubeVideoID) error {
	err := w.client.Data().
		Deleter().
		WithClassName(className).
		WithID(objectID(id)).
		Do(ctx)
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return err
	}

	return nil
}

// Search returns the ids of the videos whose summaries are closest to query.
func (w *Weaviate) Search(ctx context.Context, query string, limit int) ([]model.YoutubeVideoID, error) {
	nearText := w.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})
	resp, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(graphql.Field{Name: "videoId"}).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search: %s", resp.Errors[0].Message)
	}

	return parseSearchResult(resp.Data), nil
}

func parseSearchResult(data map[string]models.JSONObject) []model.YoutubeVideoID {
	ids := []model.YoutubeVideoID{}
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return ids
	}
	objects, ok := get[className].([]any)
	if !ok {
		return ids
	}
	for _, obj := range objects {
		props, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := props["videoId"].(string); ok && id != "" {
			ids = append(ids, model.YoutubeVideoID(id))
		}
	}

	return ids
}
