package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

type fakeSource struct {
	results []models.StoredResult
	deleted []string
	err     error
}

func (f *fakeSource) List(context.Context, int, int) ([]models.StoredResult, error) {
	return f.results, f.err
}

func (f *fakeSource) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func sampleResults() []models.StoredResult {
	return []models.StoredResult{
		{
			ID:        "11111111-aaaa",
			CreatedAt: time.Date(2025, 12, 5, 14, 22, 0, 0, time.UTC),
			TriageResult: models.TriageResult{
				Title:            "Login button not found in UI",
				Category:         models.CategoryFrontendUI,
				Severity:         models.SeverityHigh,
				Confidence:       0.82,
				Label:            "UI Bug",
				IsFlaky:          true,
				FlakinessReasons: []string{"Timeout detected"},
			},
		},
		{
			ID:        "22222222-bbbb",
			CreatedAt: time.Date(2025, 12, 5, 14, 20, 0, 0, time.UTC),
			TriageResult: models.TriageResult{
				Title:    "Database query failed",
				Category: models.CategoryDatabase,
				Severity: models.SeverityCritical,
				Label:    "Database Error",
			},
		},
	}
}

func loadedBrowser(t *testing.T, src *fakeSource) *Browser {
	t.Helper()
	b := NewBrowser(src, 50)
	msg := b.Init()()
	b.Update(msg)
	return b
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestBrowserLoadsRows(t *testing.T) {
	b := loadedBrowser(t, &fakeSource{results: sampleResults()})

	if got := len(b.table.Rows()); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	view := b.View()
	if !strings.Contains(view, "Login button not found in UI") {
		t.Errorf("View() missing first title:\n%s", view)
	}
	if !strings.Contains(view, "2 results") {
		t.Errorf("View() missing status:\n%s", view)
	}
}

func TestBrowserDetailMode(t *testing.T) {
	b := loadedBrowser(t, &fakeSource{results: sampleResults()})

	b.Update(key("down"))
	b.Update(key("enter"))
	if b.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", b.mode)
	}
	if view := b.View(); !strings.Contains(view, "22222222-bbbb") {
		t.Errorf("detail view missing selected id:\n%s", view)
	}

	b.Update(key("esc"))
	if b.mode != modeList {
		t.Errorf("mode after esc = %v, want list", b.mode)
	}
}

func TestBrowserDelete(t *testing.T) {
	src := &fakeSource{results: sampleResults()}
	b := loadedBrowser(t, src)

	_, cmd := b.Update(key("d"))
	if cmd == nil {
		t.Fatal("delete returned no command")
	}
	_, reload := b.Update(cmd())
	if len(src.deleted) != 1 || src.deleted[0] != "11111111-aaaa" {
		t.Errorf("deleted = %v, want [11111111-aaaa]", src.deleted)
	}
	if reload == nil {
		t.Error("delete did not trigger a reload")
	}
	if !strings.Contains(b.status, "deleted 11111111") {
		t.Errorf("status = %q", b.status)
	}
}

func TestBrowserEmptyAndError(t *testing.T) {
	b := loadedBrowser(t, &fakeSource{})
	if view := b.View(); !strings.Contains(view, "No stored results.") {
		t.Errorf("empty View() = %q", view)
	}

	b = loadedBrowser(t, &fakeSource{err: errors.New("database is locked")})
	if view := b.View(); !strings.Contains(view, "database is locked") {
		t.Errorf("error View() = %q", view)
	}
}

func TestBrowserQuit(t *testing.T) {
	b := loadedBrowser(t, &fakeSource{})
	_, cmd := b.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if b.View() != "" {
		t.Error("View() after quit is not empty")
	}
}
