package history

import (
	"context"
	"sync"

	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/storage"
)

// View is the in-memory projection of the history store shown to users. It
// is loaded from the store and only changed by methods that write the store
// first, so it never holds a record the store does not have. It keeps no
// per-user state, all clients share it.
type View struct {
	mu    sync.RWMutex
	store storage.HistoryStore
	items []model.VideoRecord
}

func NewView(ctx context.Context, store storage.HistoryStore) (*View, error) {
	v := &View{store: store}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	return v, nil
}

// Refresh reloads the projection. Needed when another process, like an
// ingestion run, wrote to the store.
func (v *View) Refresh(ctx context.Context) error {
	items, err := v.store.List(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items

	return nil
}

// Items returns the records newest first.
func (v *View) Items() []model.VideoRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()

	items := make([]model.VideoRecord, len(v.items))
	copy(items, v.items)
	return items
}

// Add persists the video and puts it on top of the view.
func (v *View) Add(ctx context.Context, video *model.VideoRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Upsert(ctx, video); err != nil {
		return err
	}
	if i, ok := v.find(video.ID); ok {
		v.items = append(v.items[:i], v.items[i+1:]...)
	}
	v.items = append([]model.VideoRecord{*video}, v.items...)

	return nil
}

func (v *View) Delete(ctx context.Context, id model.YoutubeVideoID) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	deleted, err := v.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if i, ok := v.find(id); ok {
		v.items = append(v.items[:i], v.items[i+1:]...)
	}

	return deleted, nil
}

func (v *View) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Clear(ctx); err != nil {
		return err
	}
	v.items = []model.VideoRecord{}

	return nil
}

func (v *View) Get(id model.YoutubeVideoID) (model.VideoRecord, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	i, ok := v.find(id)
	if !ok {
		return model.VideoRecord{}, false
	}

	return v.items[i], true
}

func (v *View) find(id model.YoutubeVideoID) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, item := range v.items {
		if item.ID == id {
			return i, true
		}
	}

	return 0, false
}
