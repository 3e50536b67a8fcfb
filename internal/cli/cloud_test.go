package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FakeCloudService struct {
	InsertFunc        func(ctx context.Context, w domain.NewWebsite) (domain.Website, error)
	GetAllFunc        func(ctx context.Context) ([]domain.Website, error)
	GetByIDFunc       func(ctx context.Context, id string) (domain.Website, error)
	UpdateFunc        func(ctx context.Context, id string, p domain.Patch) (domain.Website, error)
	DeleteFunc        func(ctx context.Context, id string) error
	SearchFunc        func(ctx context.Context, q string) ([]domain.Website, error)
	GetByCategoryFunc func(ctx context.Context, c domain.Category) ([]domain.Website, error)
}

func (f *FakeCloudService) Insert(ctx context.Context, w domain.NewWebsite) (domain.Website, error) {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, w)
	}
	return domain.Website{ID: "row-1", Name: w.Name, URL: w.URL, Categories: w.Categories, Status: w.Status}, nil
}

func (f *FakeCloudService) GetAll(ctx context.Context) ([]domain.Website, error) {
	if f.GetAllFunc != nil {
		return f.GetAllFunc(ctx)
	}
	return []domain.Website{}, nil
}

func (f *FakeCloudService) GetByID(ctx context.Context, id string) (domain.Website, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return domain.Website{}, domain.NotFound("remote.getById", "Website not found")
}

func (f *FakeCloudService) Update(ctx context.Context, id string, p domain.Patch) (domain.Website, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, p)
	}
	return domain.Website{ID: id}, nil
}

func (f *FakeCloudService) Delete(ctx context.Context, id string) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeCloudService) Search(ctx context.Context, q string) ([]domain.Website, error) {
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, q)
	}
	return []domain.Website{}, nil
}

func (f *FakeCloudService) GetByCategory(ctx context.Context, c domain.Category) ([]domain.Website, error) {
	if f.GetByCategoryFunc != nil {
		return f.GetByCategoryFunc(ctx, c)
	}
	return []domain.Website{}, nil
}

func sampleWebsite() domain.Website {
	return domain.Website{
		ID:         "0b7c3f9e-2f7e-4a51-9d0a-9f2d3f1c2b11",
		UserID:     "user-1",
		Name:       "MDN",
		URL:        "https://developer.mozilla.org",
		Categories: []domain.Category{domain.CategoryLearning, domain.CategoryTools},
		Status:     domain.StatusActive,
		CreatedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCloudAdd_MapsCategories(t *testing.T) {
	out := captureOutput(t)

	var got domain.NewWebsite
	c := CloudCmd{svc: &FakeCloudService{
		InsertFunc: func(_ context.Context, w domain.NewWebsite) (domain.Website, error) {
			got = w
			return domain.Website{ID: "row-9", Name: w.Name}, nil
		},
	}}

	err := c.Add(context.Background(), CloudAddInput{
		Name:       "MDN",
		URL:        "developer.mozilla.org",
		Categories: []string{"learning", "TOOLS"},
		Status:     "active",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryLearning, domain.CategoryTools}, got.Categories)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Contains(t, out.String(), "row-9")
}

func TestCloudList_RoutesByInput(t *testing.T) {
	var calls []string
	fake := &FakeCloudService{
		GetAllFunc: func(context.Context) ([]domain.Website, error) {
			calls = append(calls, "all")
			return []domain.Website{sampleWebsite()}, nil
		},
		SearchFunc: func(_ context.Context, q string) ([]domain.Website, error) {
			calls = append(calls, "search:"+q)
			return nil, nil
		},
		GetByCategoryFunc: func(_ context.Context, cat domain.Category) ([]domain.Website, error) {
			calls = append(calls, "category:"+string(cat))
			return nil, nil
		},
	}
	c := CloudCmd{svc: fake}
	ctx := context.Background()

	tests := []struct {
		name string
		in   CloudListInput
		want string
	}{
		{name: "all", in: CloudListInput{}, want: "all"},
		{name: "search trims", in: CloudListInput{Query: "  mdn "}, want: "search:mdn"},
		{name: "query wins over category", in: CloudListInput{Query: "x", Category: "Work"}, want: "search:x"},
		{name: "category any case", in: CloudListInput{Category: "news"}, want: "category:News"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t)
			calls = nil
			require.NoError(t, c.List(ctx, tt.in))
			assert.Equal(t, []string{tt.want}, calls)
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		calls = nil
		err := c.List(ctx, CloudListInput{Category: "Gardening"})
		assert.ErrorIs(t, err, domain.ErrInvalid)
		assert.Empty(t, calls)
	})
}

func TestCloudList_TableAndJSON(t *testing.T) {
	c := CloudCmd{svc: &FakeCloudService{
		GetAllFunc: func(context.Context) ([]domain.Website, error) {
			return []domain.Website{sampleWebsite()}, nil
		},
	}}

	out := captureOutput(t)
	require.NoError(t, c.List(context.Background(), CloudListInput{}))
	assert.Contains(t, out.String(), "Learning, Tools")
	assert.Contains(t, out.String(), "https://developer.mozilla.org")

	out = captureOutput(t)
	require.NoError(t, c.List(context.Background(), CloudListInput{Output: "json"}))
	var got []domain.Website
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "MDN", got[0].Name)
}

func TestCloudUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("only set fields are sent", func(t *testing.T) {
		captureOutput(t)
		var got domain.Patch
		c := CloudCmd{svc: &FakeCloudService{
			UpdateFunc: func(_ context.Context, id string, p domain.Patch) (domain.Website, error) {
				got = p
				s := sampleWebsite()
				s.ID = id
				return s, nil
			},
		}}
		name := "MDN Web Docs"
		status := "archived"
		require.NoError(t, c.Update(ctx, CloudUpdateInput{ID: "abc", Name: &name, Status: &status}))

		require.NotNil(t, got.Name)
		assert.Equal(t, "MDN Web Docs", *got.Name)
		require.NotNil(t, got.Status)
		assert.Equal(t, domain.StatusArchived, *got.Status)
		assert.Nil(t, got.URL)
		assert.Nil(t, got.Categories)
	})

	t.Run("empty patch", func(t *testing.T) {
		called := false
		c := CloudCmd{svc: &FakeCloudService{
			UpdateFunc: func(context.Context, string, domain.Patch) (domain.Website, error) {
				called = true
				return domain.Website{}, nil
			},
		}}
		err := c.Update(ctx, CloudUpdateInput{ID: "abc"})
		assert.ErrorIs(t, err, domain.ErrInvalid)
		assert.False(t, called)
	})
}

func TestCloudGet_NotFound(t *testing.T) {
	c := CloudCmd{svc: &FakeCloudService{}}
	err := c.Get(context.Background(), CloudGetInput{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloudRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		out := captureOutput(t)
		var deleted string
		c := CloudCmd{
			svc: &FakeCloudService{DeleteFunc: func(_ context.Context, id string) error {
				deleted = id
				return nil
			}},
			confirm: func(string) bool { return true },
		}
		require.NoError(t, c.Remove(ctx, CloudRemoveInput{ID: "abc"}))
		assert.Equal(t, "abc", deleted)
		assert.Contains(t, out.String(), "Deleted cloud site: abc")
	})

	t.Run("not found", func(t *testing.T) {
		out := captureOutput(t)
		c := CloudCmd{svc: &FakeCloudService{DeleteFunc: func(context.Context, string) error {
			return domain.NotFound("remote.delete", "Website not found")
		}}}
		require.NoError(t, c.Remove(ctx, CloudRemoveInput{ID: "abc", SkipConfirm: true}))
		assert.Contains(t, out.String(), "not found")
	})

	t.Run("auth required propagates", func(t *testing.T) {
		c := CloudCmd{svc: &FakeCloudService{DeleteFunc: func(context.Context, string) error {
			return domain.AuthRequired("remote.delete")
		}}}
		err := c.Remove(ctx, CloudRemoveInput{ID: "abc", SkipConfirm: true})
		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})
}
