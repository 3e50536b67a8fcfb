package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
)

func rec(id, name, url string, c domain.Category) domain.Record {
	return domain.Record{RecordID: id, DisplayName: name, TargetURL: url, Category: c}
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if got := index.All(); len(got) != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %v", len(got))
	}
	if !index.LastReload().IsZero() {
		t.Error("LastReload() should be zero before the first Replace")
	}
}

func TestReplaceOverwrites(t *testing.T) {
	index := NewMemoryIndex()

	index.Replace([]domain.Record{rec("a", "Alpha", "https://a.example.com", domain.CategoryWork)})
	index.Replace([]domain.Record{
		rec("b", "Beta", "https://b.example.com", domain.CategoryNews),
		rec("c", "Gamma", "https://c.example.com", domain.CategoryOther),
	})

	if got := index.Count(); got != 2 {
		t.Errorf("Replace() should overwrite, got %v records want 2", got)
	}
	if _, ok := index.Get("a"); ok {
		t.Error("Replace() kept a record from the previous snapshot")
	}
	if index.LastReload().IsZero() {
		t.Error("Replace() should set LastReload")
	}
}

func TestAllIsOrderedByRecordID(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace([]domain.Record{
		rec("c", "Gamma", "https://c.example.com", domain.CategoryWork),
		rec("a", "Alpha", "https://a.example.com", domain.CategoryWork),
		rec("b", "Beta", "https://b.example.com", domain.CategoryWork),
	})

	got := index.All()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if got[i].RecordID != id {
			t.Errorf("All()[%d] = %v, want %v", i, got[i].RecordID, id)
		}
	}
}

func TestPutAndRemove(t *testing.T) {
	index := NewMemoryIndex()

	index.Put(rec("a", "Alpha", "https://a.example.com", domain.CategoryWork))
	index.Put(rec("a", "Alpha 2", "https://a.example.com", domain.CategoryWork))
	if got, _ := index.Get("a"); got.DisplayName != "Alpha 2" {
		t.Errorf("Put() should overwrite, got %v", got.DisplayName)
	}

	index.Remove("a")
	index.Remove("missing")
	if got := index.Count(); got != 0 {
		t.Errorf("Remove() left %v records", got)
	}
}

func TestFilter(t *testing.T) {
	index := NewMemoryIndex()
	index.Replace([]domain.Record{
		rec("1", "GitHub", "https://github.com", domain.CategoryWork),
		rec("2", "MDN Web Docs", "https://developer.mozilla.org", domain.CategoryLearning),
		rec("3", "YouTube", "https://youtube.com", domain.CategoryEntertainment),
	})

	tests := []struct {
		term string
		want int
	}{
		{"", 3},
		{"git", 1},
		{"MOZILLA", 1},
		{"learning", 1},
		{"nothing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := index.Filter(tt.term); len(got) != tt.want {
				t.Errorf("Filter(%q) = %v records, want %v", tt.term, len(got), tt.want)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			index.Put(rec(fmt.Sprintf("id-%03d", i), "Site", "https://example.com", domain.CategoryOther))
		}(i)
		go func() {
			defer wg.Done()
			_ = index.Filter("site")
		}()
	}
	wg.Wait()

	if got := index.Count(); got != 100 {
		t.Errorf("concurrent Put() count = %v, want 100", got)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	index := NewMemoryIndex()
	index.Put(rec("a", "Alpha", "https://a.example.com", domain.CategoryWork))

	snapshot := index.All()
	snapshot[0].DisplayName = "changed"

	if got, _ := index.Get("a"); got.DisplayName != "Alpha" {
		t.Errorf("All() leaked internal state, got %v", got.DisplayName)
	}
}
