package store_test

import (
	"context"
	"testing"

	"github.com/pinjam-app/pinjam/internal/store"
	"github.com/pinjam-app/pinjam/internal/testutil"
)

func TestNotificationStore_UnreadCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	us := store.NewUserStore(db)
	ns := store.NewNotificationStore(db)

	u, err := us.Create(ctx, store.NewUser{Email: "andi@sekolah.id", DisplayName: "Andi"}, "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	other, err := us.Create(ctx, store.NewUser{Email: "budi@sekolah.id", DisplayName: "Budi"}, "")
	if err != nil {
		t.Fatalf("seed other: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := ns.Create(ctx, u.ID, "Peminjaman disetujui", "/dashboard"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := ns.Create(ctx, other.ID, "Untuk Budi", ""); err != nil {
		t.Fatalf("create other: %v", err)
	}

	n, err := ns.CountUnread(ctx, u.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("unread = %d, want 3", n)
	}

	if err := ns.MarkAllRead(ctx, u.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = ns.CountUnread(ctx, u.ID)
	if n != 0 {
		t.Errorf("unread after mark = %d, want 0", n)
	}
	n, _ = ns.CountUnread(ctx, other.ID)
	if n != 1 {
		t.Errorf("other user's unread = %d, want 1", n)
	}

	list, err := ns.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Unread() {
		t.Errorf("list = %d entries, first unread=%v", len(list), list[0].Unread())
	}
}
