package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/ipabot/internal/store"
)

func TestMemStoreReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemStore()

	r := store.Reply{
		MessageID: "m1",
		ReplyID:   "r1",
		ChannelID: "c1",
		GuildID:   "g1",
		CreatedAt: time.Now(),
	}
	if err := s.SaveReply(ctx, r); err != nil {
		t.Fatalf("SaveReply: unexpected error: %v", err)
	}

	got, err := s.Reply(ctx, "m1")
	if err != nil {
		t.Fatalf("Reply: unexpected error: %v", err)
	}
	if got.ReplyID != "r1" || got.ChannelID != "c1" {
		t.Errorf("Reply: unexpected record: %+v", got)
	}

	// Re-saving under the same message ID replaces the record.
	r.ReplyID = "r2"
	if err := s.SaveReply(ctx, r); err != nil {
		t.Fatalf("SaveReply: unexpected error: %v", err)
	}
	got, err = s.Reply(ctx, "m1")
	if err != nil {
		t.Fatalf("Reply: unexpected error: %v", err)
	}
	if got.ReplyID != "r2" {
		t.Errorf("Reply after re-save: expected r2, got %q", got.ReplyID)
	}

	if err := s.DeleteReply(ctx, "m1"); err != nil {
		t.Fatalf("DeleteReply: unexpected error: %v", err)
	}
	if _, err := s.Reply(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Reply after delete: expected ErrNotFound, got %v", err)
	}

	// Deleting an unknown ID is not an error.
	if err := s.DeleteReply(ctx, "missing"); err != nil {
		t.Errorf("DeleteReply(missing): unexpected error: %v", err)
	}
}

func TestMemStorePruneReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemStore()
	now := time.Now()

	old := store.Reply{MessageID: "old", ReplyID: "r", ChannelID: "c", CreatedAt: now.Add(-48 * time.Hour)}
	fresh := store.Reply{MessageID: "fresh", ReplyID: "r", ChannelID: "c", CreatedAt: now}
	for _, r := range []store.Reply{old, fresh} {
		if err := s.SaveReply(ctx, r); err != nil {
			t.Fatalf("SaveReply: unexpected error: %v", err)
		}
	}

	n, err := s.PruneReplies(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneReplies: unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("PruneReplies: expected 1 removed, got %d", n)
	}
	if _, err := s.Reply(ctx, "old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old reply should be pruned, got err %v", err)
	}
	if _, err := s.Reply(ctx, "fresh"); err != nil {
		t.Errorf("fresh reply should survive, got err %v", err)
	}
}

func TestMemStoreNotifyChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemStore()

	if _, err := s.NotifyChannel(ctx, "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("NotifyChannel: expected ErrNotFound, got %v", err)
	}

	if err := s.SetNotifyChannel(ctx, "g1", "c9"); err != nil {
		t.Fatalf("SetNotifyChannel: unexpected error: %v", err)
	}
	ch, err := s.NotifyChannel(ctx, "g1")
	if err != nil {
		t.Fatalf("NotifyChannel: unexpected error: %v", err)
	}
	if ch != "c9" {
		t.Errorf("NotifyChannel: expected c9, got %q", ch)
	}

	// An empty channel ID clears the setting.
	if err := s.SetNotifyChannel(ctx, "g1", ""); err != nil {
		t.Fatalf("SetNotifyChannel(clear): unexpected error: %v", err)
	}
	if _, err := s.NotifyChannel(ctx, "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("NotifyChannel after clear: expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreErrorLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemStore()

	recs := []store.ErrorRecord{
		{GuildID: "g1", Message: "first", OccurredAt: time.Now()},
		{GuildID: "g2", Message: "second", OccurredAt: time.Now()},
	}
	for _, rec := range recs {
		if err := s.LogError(ctx, rec); err != nil {
			t.Fatalf("LogError: unexpected error: %v", err)
		}
	}

	got := s.Errors()
	if len(got) != 2 {
		t.Fatalf("Errors: expected 2 records, got %d", len(got))
	}
	if got[0].Message != "first" || got[1].Message != "second" {
		t.Errorf("Errors: wrong order: %+v", got)
	}
}
