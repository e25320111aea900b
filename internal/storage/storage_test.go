package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
)

type memObjectStore struct {
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) PutObject(_ context.Context, bucket, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memObjectStore) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjectStore) RemoveObject(_ context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func TestProposalKey(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"proposal.pdf", "proposals/7/proposal.pdf"},
		{"my thesis draft.pdf", "proposals/7/my_thesis_draft.pdf"},
		{"../../etc/passwd", "proposals/7/passwd"},
		{"notes\\final.docx", "proposals/7/final.docx"},
		{"", "proposals/7/file"},
	}

	for _, tt := range tests {
		if got := ProposalKey(7, tt.filename); got != tt.want {
			t.Errorf("ProposalKey(7, %q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestAvatarKey(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"me.png", "avatars/3.png"},
		{"photo.JPEG", "avatars/3.JPEG"},
		{"no-extension", "avatars/3"},
	}

	for _, tt := range tests {
		if got := AvatarKey(3, tt.filename); got != tt.want {
			t.Errorf("AvatarKey(3, %q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := t.Context()
	mem := newMemObjectStore()
	store := NewWithClient(mem, "proposals", "avatars")

	key := ProposalKey(1, "proposal.pdf")
	if err := store.PutProposal(ctx, key, bytes.NewReader([]byte("document body")), 13, "application/pdf"); err != nil {
		t.Fatalf("PutProposal: %v", err)
	}

	obj, err := store.GetProposal(ctx, key)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(data) != "document body" {
		t.Errorf("object body = %q", data)
	}

	if err := store.RemoveProposal(ctx, key); err != nil {
		t.Fatalf("RemoveProposal: %v", err)
	}
	if _, err := store.GetProposal(ctx, key); err == nil {
		t.Error("expected error after removal")
	}
}

func TestStoreBucketSeparation(t *testing.T) {
	ctx := t.Context()
	mem := newMemObjectStore()
	store := NewWithClient(mem, "proposals", "avatars")

	if err := store.PutAvatar(ctx, "avatars/1.png", bytes.NewReader([]byte("img")), 3, "image/png"); err != nil {
		t.Fatalf("PutAvatar: %v", err)
	}

	// Avatars land in the avatar bucket, not the proposal bucket.
	if _, err := store.GetProposal(ctx, "avatars/1.png"); err == nil {
		t.Error("avatar should not be readable from the proposal bucket")
	}
	if _, err := store.GetAvatar(ctx, "avatars/1.png"); err != nil {
		t.Errorf("GetAvatar: %v", err)
	}
}
