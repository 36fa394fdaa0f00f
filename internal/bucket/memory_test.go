package bucket

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryRoundtrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "avatars/a1", strings.NewReader("png-bytes"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	obj, err := store.Get(ctx, "avatars/a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	if string(data) != "png-bytes" || obj.ContentType != "image/png" || obj.Size != 9 {
		t.Fatalf("unexpected object: %q %q %d", data, obj.ContentType, obj.Size)
	}

	if err := store.Delete(ctx, "avatars/a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "avatars/a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
